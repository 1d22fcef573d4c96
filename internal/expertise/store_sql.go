// Package expertise keeps the areas of expertise a conference defines and the
// areas each judge is tagged with.
package expertise

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

var (
	ErrDuplicate = fmt.Errorf("expertise area already exists: %w", domain.ErrConflict)
	ErrNotJudge  = fmt.Errorf("user is not a judge: %w", domain.ErrPrecondition)
)

type Store interface {
	List(ctx context.Context, conferenceID string) ([]string, error)
	Add(ctx context.Context, conferenceID, name string) (string, error)
	Remove(ctx context.Context, conferenceID, name string) error
	JudgeAreas(ctx context.Context, conferenceID, judgeID string) ([]string, error)
	SetJudgeAreas(ctx context.Context, conferenceID, judgeID string, names []string) ([]string, error)
}

type areaInput struct {
	Name string `validate:"required,max=100"`
}

// NormalizeName trims name and checks it is non-empty and at most 100
// characters.
func NormalizeName(name string) (string, error) {
	in := areaInput{Name: strings.TrimSpace(name)}
	if err := domain.ValidateStruct("expertise area", in); err != nil {
		return "", err
	}
	return in.Name, nil
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func names(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// List returns the conference's areas in the order they were added.
func (s *SQLStore) List(ctx context.Context, conferenceID string) ([]string, error) {
	return names(ctx, s.db, `SELECT name FROM expertise_areas WHERE conference_id=$1 ORDER BY created_at, name`, conferenceID)
}

func (s *SQLStore) Add(ctx context.Context, conferenceID, name string) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM conferences WHERE id=$1`, conferenceID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("conference %s: %w", conferenceID, domain.ErrNotFound)
		}
		return "", err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO expertise_areas (conference_id, name, created_at) VALUES ($1,$2,$3)
		ON CONFLICT (conference_id, name) DO NOTHING`, conferenceID, name, time.Now().UnixNano())
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	return name, nil
}

// Remove deletes an area; judges lose the tag with it.
func (s *SQLStore) Remove(ctx context.Context, conferenceID, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expertise_areas WHERE conference_id=$1 AND name=$2`,
		conferenceID, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expertise area %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

const judgeAreasQuery = `SELECT je.name FROM judge_expertise je
		JOIN expertise_areas a ON a.conference_id = je.conference_id AND a.name = je.name
		WHERE je.conference_id=$1 AND je.judge_id=$2
		ORDER BY a.created_at, a.name`

func (s *SQLStore) JudgeAreas(ctx context.Context, conferenceID, judgeID string) ([]string, error) {
	return names(ctx, s.db, judgeAreasQuery, conferenceID, judgeID)
}

// SetJudgeAreas replaces the judge's areas in one conference. Every name must
// already be defined for the conference; repeats collapse.
func (s *SQLStore) SetJudgeAreas(ctx context.Context, conferenceID, judgeID string, areas []string) (_ []string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var role string
	if err = tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, judgeID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", judgeID, domain.ErrNotFound)
		}
		return nil, err
	}
	if r, _ := rbac.ParseRole(role); r != rbac.RoleJudge {
		return nil, fmt.Errorf("%s: %w", judgeID, ErrNotJudge)
	}

	defined, err := names(ctx, tx, `SELECT name FROM expertise_areas WHERE conference_id=$1`, conferenceID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(defined))
	for _, n := range defined {
		known[n] = true
	}
	ve := domain.NewValidationError("judge expertise")
	seen := map[string]bool{}
	var want []string
	for _, a := range areas {
		a = strings.TrimSpace(a)
		switch {
		case !known[a]:
			ve.Add("unknown expertise area %q", a)
		case !seen[a]:
			seen[a] = true
			want = append(want, a)
		}
	}
	if err = ve.Err(); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM judge_expertise WHERE judge_id=$1 AND conference_id=$2`, judgeID, conferenceID); err != nil {
		return nil, err
	}
	for _, a := range want {
		if _, err = tx.ExecContext(ctx, `INSERT INTO judge_expertise (judge_id, conference_id, name) VALUES ($1,$2,$3)`,
			judgeID, conferenceID, a); err != nil {
			return nil, err
		}
	}
	return names(ctx, tx, judgeAreasQuery, conferenceID, judgeID)
}
