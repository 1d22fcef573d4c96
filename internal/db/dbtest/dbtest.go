// Package dbtest opens throwaway sqlite databases with the full schema and
// seeds the collaborator tables (users, conferences, projects) for tests.
package dbtest

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/db"
)

// Open returns an in-memory database unique to t, closed on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbh, err := db.OpenMemory(context.Background(), name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func now() int64 { return time.Now().Unix() }

func User(t testing.TB, dbh *sql.DB, id, fullName, role string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO users (id, username, full_name, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`, id, id, fullName, "x", role, now())
	require.NoError(t, err)
}

func Conference(t testing.TB, dbh *sql.DB, id string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO conferences (id, name, created_at) VALUES ($1,$2,$3)`, id, "Conference "+id, now())
	require.NoError(t, err)
}

// ProjectOpts are the optional project columns.
type ProjectOpts struct {
	Department   string
	Room         string
	LegacyMember string // JSON array
}

func Project(t testing.TB, dbh *sql.DB, id, conferenceID, title string, opts ...ProjectOpts) {
	t.Helper()
	var o ProjectOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.LegacyMember == "" {
		o.LegacyMember = "[]"
	}
	_, err := dbh.Exec(`INSERT INTO projects (id, conference_id, title_en, title_he, department, room, legacy_team_members, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, conferenceID, title, title+" (he)", o.Department, o.Room, o.LegacyMember, now())
	require.NoError(t, err)
}

func Member(t testing.TB, dbh *sql.DB, projectID, studentID string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO project_members (project_id, student_id) VALUES ($1,$2)`, projectID, studentID)
	require.NoError(t, err)
}

func Assign(t testing.TB, dbh *sql.DB, projectID, judgeID string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO judge_assignments (project_id, judge_id) VALUES ($1,$2)`, projectID, judgeID)
	require.NoError(t, err)
}
