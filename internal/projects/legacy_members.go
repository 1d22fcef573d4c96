package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// NameRef points at one legacy team-member name that could not be linked.
type NameRef struct {
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	Matches   []string `json:"matches,omitempty"` // candidate user ids when ambiguous
}

type MigrationReport struct {
	Projects      int       `json:"projects"`
	Linked        int       `json:"linked"`
	AlreadyLinked int       `json:"already_linked"`
	Unmatched     []NameRef `json:"unmatched,omitempty"`
	Ambiguous     []NameRef `json:"ambiguous,omitempty"`
}

// MigrateLegacyMembers turns the legacy full-name team lists into
// project_members rows. A name links only when exactly one student carries it
// (case-folded, trimmed); collisions and unknown names are reported and left
// for a manager to resolve. Safe to re-run.
func MigrateLegacyMembers(ctx context.Context, db *sql.DB) (rep MigrationReport, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return rep, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	fold := cases.Fold()
	key := func(s string) string { return fold.String(strings.Join(strings.Fields(s), " ")) }

	students := map[string][]string{}
	rows, err := tx.QueryContext(ctx, `SELECT id, full_name FROM users WHERE role='student' ORDER BY id`)
	if err != nil {
		return rep, err
	}
	for rows.Next() {
		var id, name string
		if err = rows.Scan(&id, &name); err != nil {
			rows.Close()
			return rep, err
		}
		if k := key(name); k != "" {
			students[k] = append(students[k], id)
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return rep, err
	}

	type legacy struct {
		projectID string
		names     []string
	}
	var todo []legacy
	rows, err = tx.QueryContext(ctx, `SELECT id, legacy_team_members FROM projects ORDER BY id`)
	if err != nil {
		return rep, err
	}
	for rows.Next() {
		var id, raw string
		if err = rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return rep, err
		}
		var names []string
		if json.Unmarshal([]byte(raw), &names) != nil || len(names) == 0 {
			continue
		}
		todo = append(todo, legacy{projectID: id, names: names})
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return rep, err
	}

	for _, p := range todo {
		rep.Projects++
		for _, name := range p.names {
			ids := students[key(name)]
			switch len(ids) {
			case 0:
				rep.Unmatched = append(rep.Unmatched, NameRef{ProjectID: p.projectID, Name: name})
				continue
			case 1:
			default:
				rep.Ambiguous = append(rep.Ambiguous, NameRef{ProjectID: p.projectID, Name: name, Matches: ids})
				continue
			}
			res, e := tx.ExecContext(ctx, `INSERT INTO project_members (project_id, student_id) VALUES ($1,$2)
				ON CONFLICT (project_id, student_id) DO NOTHING`, p.projectID, ids[0])
			if e != nil {
				err = e
				return rep, err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				rep.Linked++
			} else {
				rep.AlreadyLinked++
			}
		}
	}
	return rep, nil
}
