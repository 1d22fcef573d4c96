package evaluation_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/db/dbtest"
	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
)

func intp(v int) *int { return &v }

type fixture struct {
	db       *sql.DB
	criteria []criteria.Criterion
}

// seed builds conference c1 with project p1 judged by j1 and j2, and two
// criteria (max 10 and max 5).
func seed(t *testing.T) fixture {
	t.Helper()
	dbh := dbtest.Open(t)
	dbtest.Conference(t, dbh, "c1")
	dbtest.Project(t, dbh, "p1", "c1", "Robot")
	dbtest.User(t, dbh, "j1", "Judge One", "judge")
	dbtest.User(t, dbh, "j2", "Judge Two", "judge")
	dbtest.User(t, dbh, "s1", "Noa Levi", "student")
	dbtest.Assign(t, dbh, "p1", "j1")
	dbtest.Assign(t, dbh, "p1", "j2")
	dbtest.Member(t, dbh, "p1", "s1")

	cs := criteria.NewSQLStore(dbh)
	ctx := context.Background()
	a, err := cs.Create(ctx, "c1", criteria.Input{NameEN: "Innovation", NameHE: "חדשנות", MaxScore: intp(10), SortOrder: 1})
	require.NoError(t, err)
	b, err := cs.Create(ctx, "c1", criteria.Input{NameEN: "Presentation", NameHE: "הצגה", MaxScore: intp(5), SortOrder: 2})
	require.NoError(t, err)
	return fixture{db: dbh, criteria: []criteria.Criterion{a, b}}
}

func TestSaveReplacesScores(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)
	c1, c2 := f.criteria[0].ID, f.criteria[1].ID

	first, err := store.Save(ctx, "p1", "j1", "good", false, []evaluation.Score{
		{CriterionID: c1, Score: 8}, {CriterionID: c2, Score: 3, Note: "ok"},
	})
	require.NoError(t, err)
	assert.False(t, first.IsComplete)
	assert.Nil(t, first.SubmittedAt)
	require.Len(t, first.Scores, 2)

	second, err := store.Save(ctx, "p1", "j1", "better", false, []evaluation.Score{{CriterionID: c1, Score: 9}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one evaluation per (project, judge)")
	assert.Equal(t, "better", second.GeneralNotes)

	scores, err := store.ScoresForEvaluation(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1, "scores not resubmitted must not survive")
	assert.Equal(t, 9, scores[0].Score)
}

func TestReplaceScoresIsAtomic(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)
	c1, c2 := f.criteria[0].ID, f.criteria[1].ID

	ev, err := store.Save(ctx, "p1", "j1", "", false, []evaluation.Score{{CriterionID: c1, Score: 4}, {CriterionID: c2, Score: 2}})
	require.NoError(t, err)

	var ve *domain.ValidationError
	err = store.ReplaceScores(ctx, ev.ID, []evaluation.Score{{CriterionID: c1, Score: 1}, {CriterionID: "nope", Score: 1}})
	require.ErrorAs(t, err, &ve)

	err = store.ReplaceScores(ctx, ev.ID, []evaluation.Score{{CriterionID: c1, Score: 1}, {CriterionID: c1, Score: 2}})
	require.ErrorAs(t, err, &ve)

	scores, err := store.ScoresForEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 4+2, scores[0].Score+scores[1].Score)
}

func TestSubmittedAtLifecycle(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)

	ev, err := store.UpsertEvaluation(ctx, "p1", "j1", "n", true)
	require.NoError(t, err)
	require.NotNil(t, ev.SubmittedAt)
	assert.True(t, ev.IsComplete)

	ev, err = store.UpsertEvaluation(ctx, "p1", "j1", "n", false)
	require.NoError(t, err)
	assert.False(t, ev.IsComplete)
	assert.Nil(t, ev.SubmittedAt)
}

func TestCompleteForProject(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)
	c1 := f.criteria[0].ID

	_, err := store.Save(ctx, "p1", "j1", "", true, []evaluation.Score{{CriterionID: c1, Score: 7}})
	require.NoError(t, err)
	_, err = store.Save(ctx, "p1", "j2", "", false, []evaluation.Score{{CriterionID: c1, Score: 2}})
	require.NoError(t, err)

	done, err := store.CompleteForProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "j1", done[0].JudgeID)
	require.Len(t, done[0].Scores, 1)
	assert.Equal(t, 7, done[0].Scores[0].Score)

	all, err := store.ForProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	conf, err := store.ForConference(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, conf, 2)

	none, err := store.CompleteForProject(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.Find(ctx, "p1", "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletingCriterionCascadesScores(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)
	c1, c2 := f.criteria[0].ID, f.criteria[1].ID

	ev, err := store.Save(ctx, "p1", "j1", "", true, []evaluation.Score{{CriterionID: c1, Score: 7}, {CriterionID: c2, Score: 5}})
	require.NoError(t, err)
	require.NoError(t, criteria.NewSQLStore(f.db).Delete(ctx, c2))

	scores, err := store.ScoresForEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, c1, scores[0].CriterionID)
}

func TestReplaceScoresChecksCriterionBounds(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	store := evaluation.NewSQLStore(f.db)
	c1, c2 := f.criteria[0].ID, f.criteria[1].ID // max 10, max 5

	ev, err := store.Save(ctx, "p1", "j1", "", false, []evaluation.Score{{CriterionID: c1, Score: 10}, {CriterionID: c2, Score: 5}})
	require.NoError(t, err)

	// a criterion from another conference is unknown here
	dbtest.Conference(t, f.db, "c2")
	other, err := criteria.NewSQLStore(f.db).Create(ctx, "c2", criteria.Input{NameEN: "Design", NameHE: "עיצוב", MaxScore: intp(100)})
	require.NoError(t, err)

	for name, scores := range map[string][]evaluation.Score{
		"above max":        {{CriterionID: c2, Score: 999}},
		"one over":         {{CriterionID: c1, Score: 11}},
		"negative":         {{CriterionID: c1, Score: -1}},
		"other conference": {{CriterionID: other.ID, Score: 50}},
	} {
		err := store.ReplaceScores(ctx, ev.ID, scores)
		var ve *domain.ValidationError
		assert.ErrorAs(t, err, &ve, name)
	}

	_, err = store.Save(ctx, "p1", "j2", "", true, []evaluation.Score{{CriterionID: c2, Score: 6}})
	require.Error(t, err)
	_, err = store.Find(ctx, "p1", "j2")
	assert.ErrorIs(t, err, domain.ErrNotFound, "failed save leaves nothing behind")

	scores, err := store.ScoresForEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 10+5, scores[0].Score+scores[1].Score)
}
