package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
)

func TestDraftsAreInvisible(t *testing.T) {
	list := []criteria.Criterion{
		{ID: "b", NameEN: "Design", MaxScore: 5, Weight: 1, SortOrder: 2},
		{ID: "a", NameEN: "Innovation", MaxScore: 10, Weight: 1, SortOrder: 1},
	}
	evals := []evaluation.Evaluation{
		{ID: "e1", JudgeID: "j1", IsComplete: true, GeneralNotes: "solid",
			Scores: []evaluation.Score{{CriterionID: "b", Score: 5}, {CriterionID: "a", Score: 6, Note: "fine"}, {CriterionID: "gone", Score: 3}}},
		{ID: "e2", JudgeID: "j2", IsComplete: false, GeneralNotes: "secret draft",
			Scores: []evaluation.Score{{CriterionID: "a", Score: 1}}},
	}

	got := ForStudent(evals, list, map[string]string{"j1": "Dr. One", "j2": "Dr. Two"})
	require.Len(t, got, 1)
	se := got[0]
	assert.Equal(t, "e1", se.ID)
	assert.Equal(t, "Dr. One", se.JudgeName)
	require.Len(t, se.Scores, 2, "removed criterion is dropped")
	assert.Equal(t, "a", se.Scores[0].CriterionID)
	assert.Equal(t, "fine", se.Scores[0].Note)
	// (60 + 100) / 2
	assert.InDelta(t, 80.0, se.Score, 1e-9)
	assert.Equal(t, 80, se.Display)

	assert.Equal(t, 1, CompleteCount(evals))
	assert.False(t, CanStudentView(evals[1]))
}

func TestForStudentEmpty(t *testing.T) {
	got := ForStudent(nil, nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
