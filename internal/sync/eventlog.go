package syncx

import (
	"context"
	"database/sql"
	"time"
)

// Event is one row of the append-only audit log. Key is the evaluation id for
// evaluation transitions.
type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id,omitempty"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	ActorID   string `json:"actor_id"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.DataJSON == "" {
		e.DataJSON = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, actor_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.SiteID, e.Type, e.Key, e.ActorID, e.DataJSON, r.now().Unix())
	return err
}

// ListByKey returns the history of one key, oldest first.
func (r *EventRepo) ListByKey(ctx context.Context, key string) ([]Event, error) {
	return r.list(ctx, `WHERE key=$1 ORDER BY seq`, key)
}

// ListSince pages through the log after seq.
func (r *EventRepo) ListSince(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `WHERE seq > $1 ORDER BY seq LIMIT $2`, seq, limit)
}

func (r *EventRepo) list(ctx context.Context, tail string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, actor_id, data, created_at FROM event_log `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.ActorID, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
