package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemorySchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbh, err := OpenMemory(ctx, "schema_idempotent")
	require.NoError(t, err)
	defer dbh.Close()

	require.NoError(t, ensureSchema(ctx, dbh, DriverSQLite))

	for _, table := range []string{"users", "conferences", "projects", "project_members",
		"judge_assignments", "evaluation_criteria", "evaluations", "evaluation_scores",
		"expertise_areas", "judge_expertise", "event_log"} {
		var n int
		err := dbh.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=$1`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	dbh, err := OpenMemory(context.Background(), "fk_enforced")
	require.NoError(t, err)
	defer dbh.Close()

	_, err = dbh.Exec(`INSERT INTO projects (id, conference_id, title_en, title_he, created_at)
		VALUES ('p1','missing','t','t',0)`)
	assert.Error(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	assert.Error(t, err)
}
