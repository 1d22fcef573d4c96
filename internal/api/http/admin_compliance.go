package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	syncx "github.com/mind-engage/mindengage-judging/internal/sync"
)

type historyEntry struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	ActorID   string          `json:"actor_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

func toHistory(list []syncx.Event) []historyEntry {
	out := make([]historyEntry, 0, len(list))
	for _, e := range list {
		data := json.RawMessage(e.DataJSON)
		if !json.Valid(data) {
			data = json.RawMessage("null")
		}
		out = append(out, historyEntry{Seq: e.Seq, Type: e.Type, Key: e.Key, ActorID: e.ActorID, Data: data, CreatedAt: e.CreatedAt})
	}
	return out
}

// GET /evaluations/{evaluationID}/history
func EvaluationHistoryHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.ListByKey(r.Context(), chi.URLParam(r, "evaluationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toHistory(list))
	}
}

// GET /audit?q=...&limit=...  most recent first, matched on type or key.
func AuditSearchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 500 {
			limit = 100
		}

		rows, err := db.QueryContext(r.Context(),
			`SELECT seq, site_id, typ, key, actor_id, data, created_at FROM event_log
			 WHERE typ LIKE '%'||$1||'%' OR key LIKE '%'||$1||'%'
			 ORDER BY seq DESC LIMIT $2`, q, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rows.Close()

		var list []syncx.Event
		for rows.Next() {
			var e syncx.Event
			if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.ActorID, &e.DataJSON, &e.CreatedAt); err != nil {
				writeError(w, err)
				return
			}
			list = append(list, e)
		}
		if err := rows.Err(); err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toHistory(list))
	}
}
