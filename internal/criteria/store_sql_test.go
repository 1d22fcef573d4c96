package criteria_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/db/dbtest"
	"github.com/mind-engage/mindengage-judging/internal/domain"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestCreateAppliesDefaults(t *testing.T) {
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "conf-1")
	store := criteria.NewSQLStore(dbh)

	c, err := store.Create(context.Background(), "conf-1", criteria.Input{NameEN: " Quality ", NameHE: "איכות"})
	require.NoError(t, err)
	assert.Equal(t, "Quality", c.NameEN)
	assert.Equal(t, criteria.DefaultMaxScore, c.MaxScore)
	assert.Equal(t, criteria.DefaultWeight, c.Weight)

	got, err := store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "conf-1")
	store := criteria.NewSQLStore(dbh)
	ctx := context.Background()

	cases := map[string]criteria.Input{
		"missing hebrew name": {NameEN: "Quality", NameHE: "   "},
		"zero max":            {NameEN: "Q", NameHE: "Q", MaxScore: intp(0)},
		"zero weight":         {NameEN: "Q", NameHE: "Q", Weight: floatp(0)},
		"negative weight":     {NameEN: "Q", NameHE: "Q", Weight: floatp(-1.5)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(ctx, "conf-1", in)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	_, err := store.Create(ctx, "nope", criteria.Input{NameEN: "Q", NameHE: "Q"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForConferenceOrder(t *testing.T) {
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "conf-1")
	dbtest.Conference(t, dbh, "conf-2")
	store := criteria.NewSQLStore(dbh)
	ctx := context.Background()

	_, err := store.Create(ctx, "conf-1", criteria.Input{NameEN: "B", NameHE: "B", SortOrder: 2})
	require.NoError(t, err)
	_, err = store.Create(ctx, "conf-1", criteria.Input{NameEN: "A", NameHE: "A", SortOrder: 1})
	require.NoError(t, err)
	_, err = store.Create(ctx, "conf-2", criteria.Input{NameEN: "Other", NameHE: "Other"})
	require.NoError(t, err)

	list, err := store.ForConference(ctx, "conf-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].NameEN)
	assert.Equal(t, "B", list[1].NameEN)

	empty, err := store.ForConference(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSortTiesByID(t *testing.T) {
	list := []criteria.Criterion{{ID: "c", SortOrder: 1}, {ID: "a", SortOrder: 1}, {ID: "b", SortOrder: 0}}
	criteria.Sort(list)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestUpdateAndDeleteCascade(t *testing.T) {
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "conf-1")
	dbtest.Project(t, dbh, "p1", "conf-1", "Robot")
	dbtest.User(t, dbh, "j1", "Judge One", "judge")
	store := criteria.NewSQLStore(dbh)
	ctx := context.Background()

	c, err := store.Create(ctx, "conf-1", criteria.Input{NameEN: "Q", NameHE: "Q"})
	require.NoError(t, err)

	_, err = dbh.Exec(`INSERT INTO evaluations (id, project_id, judge_id, is_complete, created_at, updated_at) VALUES ('e1','p1','j1',$1,0,0)`, true)
	require.NoError(t, err)
	_, err = dbh.Exec(`INSERT INTO evaluation_scores (evaluation_id, criterion_id, score) VALUES ('e1',$1,8)`, c.ID)
	require.NoError(t, err)

	// lowering max below an existing score is allowed
	up, err := store.Update(ctx, c.ID, criteria.Input{NameEN: "Q2", NameHE: "Q2", MaxScore: intp(5), Weight: floatp(2)})
	require.NoError(t, err)
	assert.Equal(t, 5, up.MaxScore)
	assert.Equal(t, 2.0, up.Weight)

	require.NoError(t, store.Delete(ctx, c.ID))
	var n int
	require.NoError(t, dbh.QueryRow(`SELECT COUNT(*) FROM evaluation_scores WHERE evaluation_id='e1'`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, store.Delete(ctx, c.ID), domain.ErrNotFound)
	_, err = store.Update(ctx, c.ID, criteria.Input{NameEN: "Q", NameHE: "Q"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToScoring(t *testing.T) {
	sc := criteria.ToScoring([]criteria.Criterion{{ID: "a", MaxScore: 10, Weight: 2, NameEN: "x"}})
	require.Len(t, sc, 1)
	assert.Equal(t, "a", sc[0].ID)
	assert.Equal(t, 10, sc[0].MaxScore)
	assert.Equal(t, 2.0, sc[0].Weight)
}
