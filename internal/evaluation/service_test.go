package evaluation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/db/dbtest"
	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	syncx "github.com/mind-engage/mindengage-judging/internal/sync"
)

type fakeSink struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (f *fakeSink) Append(_ context.Context, e syncx.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

type fakeRecorder struct{ calls []string }

func (f *fakeRecorder) EvaluationAction(action, outcome string) {
	f.calls = append(f.calls, action+":"+outcome)
}

func newService(t *testing.T) (*evaluation.Service, fixture, *fakeSink, *fakeRecorder) {
	t.Helper()
	f := seed(t)
	sink := &fakeSink{}
	rec := &fakeRecorder{}
	svc := &evaluation.Service{
		Evals:    evaluation.NewSQLStore(f.db),
		Criteria: criteria.NewSQLStore(f.db),
		Projects: projects.NewSQLStore(f.db),
		Events:   sink,
		Metrics:  rec,
		SiteID:   "test",
	}
	return svc, f, sink, rec
}

func TestServiceSaveSubmitReopen(t *testing.T) {
	svc, f, sink, rec := newService(t)
	ctx := context.Background()
	judge := rbac.NewActor("j1", rbac.RoleJudge)
	c1, c2 := f.criteria[0].ID, f.criteria[1].ID

	v, err := svc.Get(ctx, judge, "p1")
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateAbsent, v.State)
	assert.Len(t, v.Criteria, 2)

	v, err = svc.Save(ctx, judge, "p1", evaluation.SaveInput{
		GeneralNotes: "draft",
		Scores:       []evaluation.ScoreInput{{CriterionID: c1, Score: 9}, {CriterionID: c2, Score: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateDraft, v.State)
	// (90 + 80) / 2
	assert.InDelta(t, 85.0, v.Score, 1e-9)
	assert.Equal(t, 85, v.Display)

	v, err = svc.Submit(ctx, judge, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateComplete, v.State)
	assert.Equal(t, "draft", v.Evaluation.GeneralNotes)
	assert.Len(t, v.Evaluation.Scores, 2)

	v, err = svc.Reopen(ctx, judge, "p1")
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateDraft, v.State)
	assert.Len(t, v.Evaluation.Scores, 2, "reopen keeps scores")

	_, err = svc.Reopen(ctx, judge, "p1")
	assert.ErrorIs(t, err, evaluation.ErrInvalidTransition)

	require.Len(t, sink.events, 3)
	assert.Equal(t, "evaluation.save", sink.events[0].Type)
	assert.Equal(t, "evaluation.submit", sink.events[1].Type)
	assert.Equal(t, "evaluation.reopen", sink.events[2].Type)
	assert.Equal(t, "j1", sink.events[2].ActorID)
	assert.Equal(t, []string{"save:ok", "submit:ok", "reopen:ok", "reopen:rejected"}, rec.calls)
}

func TestServiceRejectsOutOfRangeWithoutClamping(t *testing.T) {
	svc, f, _, rec := newService(t)
	ctx := context.Background()
	judge := rbac.NewActor("j1", rbac.RoleJudge)

	_, err := svc.Save(ctx, judge, "p1", evaluation.SaveInput{
		Scores: []evaluation.ScoreInput{{CriterionID: f.criteria[1].ID, Score: 6}},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = evaluation.NewSQLStore(f.db).Find(ctx, "p1", "j1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing persisted")
	assert.Equal(t, []string{"save:invalid"}, rec.calls)
}

func TestServiceRejectsUnknownAndDuplicateCriteria(t *testing.T) {
	svc, f, _, _ := newService(t)
	ctx := context.Background()
	judge := rbac.NewActor("j1", rbac.RoleJudge)
	c1 := f.criteria[0].ID

	_, err := svc.Save(ctx, judge, "p1", evaluation.SaveInput{
		Scores: []evaluation.ScoreInput{{CriterionID: c1, Score: 1}, {CriterionID: c1, Score: 2}, {CriterionID: "ghost", Score: 1}},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)

	_, err = svc.Save(ctx, judge, "p1", evaluation.SaveInput{
		Scores: []evaluation.ScoreInput{{CriterionID: c1, Score: -1}},
	})
	require.ErrorAs(t, err, &ve)
}

func TestServiceAuthorization(t *testing.T) {
	svc, f, _, _ := newService(t)
	ctx := context.Background()
	dbtest.User(t, f.db, "j3", "Judge Three", "judge")

	_, err := svc.Save(ctx, rbac.NewActor("s1", rbac.RoleStudent), "p1", evaluation.SaveInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Save(ctx, rbac.NewActor("j3", rbac.RoleJudge), "p1", evaluation.SaveInput{})
	assert.ErrorIs(t, err, evaluation.ErrNotAssigned)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, rbac.NewActor("j1", rbac.RoleJudge), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceSubmitWithoutCriteria(t *testing.T) {
	svc, f, _, _ := newService(t)
	ctx := context.Background()
	cs := criteria.NewSQLStore(f.db)
	for _, c := range f.criteria {
		require.NoError(t, cs.Delete(ctx, c.ID))
	}
	judge := rbac.NewActor("j1", rbac.RoleJudge)

	_, err := svc.Save(ctx, judge, "p1", evaluation.SaveInput{GeneralNotes: "nothing to score"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, judge, "p1", nil)
	assert.ErrorIs(t, err, evaluation.ErrNoCriteria)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	v, err := svc.Get(ctx, judge, "p1")
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateDraft, v.State)
	assert.Zero(t, v.Score)
}

func TestServiceSubmitRequiresScores(t *testing.T) {
	svc, f, sink, rec := newService(t)
	ctx := context.Background()
	c1 := f.criteria[0].ID

	// nothing stored yet, nothing sent
	_, err := svc.Submit(ctx, rbac.NewActor("j1", rbac.RoleJudge), "p1", nil)
	assert.ErrorIs(t, err, evaluation.ErrNoScores)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	// an empty input is no better
	j2 := rbac.NewActor("j2", rbac.RoleJudge)
	_, err = svc.Submit(ctx, j2, "p1", &evaluation.SaveInput{GeneralNotes: "forgot the scores"})
	assert.ErrorIs(t, err, evaluation.ErrNoScores)

	for _, judge := range []string{"j1", "j2"} {
		v, err := svc.Get(ctx, rbac.NewActor(judge, rbac.RoleJudge), "p1")
		require.NoError(t, err)
		assert.Equal(t, evaluation.StateAbsent, v.State, judge)
	}
	done, err := svc.Evals.CompleteForProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, done)

	// a draft without scores cannot be submitted either
	_, err = svc.Save(ctx, j2, "p1", evaluation.SaveInput{GeneralNotes: "later"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, j2, "p1", nil)
	assert.ErrorIs(t, err, evaluation.ErrNoScores)

	// nor can a complete one be emptied by a save
	_, err = svc.Submit(ctx, j2, "p1", &evaluation.SaveInput{
		Scores: []evaluation.ScoreInput{{CriterionID: c1, Score: 6}},
	})
	require.NoError(t, err)
	_, err = svc.Save(ctx, j2, "p1", evaluation.SaveInput{})
	assert.ErrorIs(t, err, evaluation.ErrNoScores)

	v, err := svc.Get(ctx, j2, "p1")
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateComplete, v.State)
	assert.Len(t, v.Evaluation.Scores, 1)

	assert.Len(t, sink.events, 2)
	assert.Equal(t, []string{
		"submit:rejected", "submit:rejected", "save:ok", "submit:rejected", "submit:ok", "save:rejected",
	}, rec.calls)
}
