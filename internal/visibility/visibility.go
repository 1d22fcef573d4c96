// Package visibility decides what students may see of evaluations. Drafts
// are invisible: they contribute neither content nor counts.
package visibility

import (
	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// CanStudentView reports whether a student may see e. Only complete
// evaluations are visible.
func CanStudentView(e evaluation.Evaluation) bool {
	return e.IsComplete
}

// StudentScore is one criterion line of a visible evaluation.
type StudentScore struct {
	CriterionID string `json:"criterion_id"`
	NameEN      string `json:"name_en"`
	NameHE      string `json:"name_he"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	Note        string `json:"note,omitempty"`
}

// StudentEvaluation is the student-safe shape of a complete evaluation.
type StudentEvaluation struct {
	ID           string         `json:"id"`
	JudgeID      string         `json:"judge_id"`
	JudgeName    string         `json:"judge_name,omitempty"`
	GeneralNotes string         `json:"general_notes,omitempty"`
	SubmittedAt  *int64         `json:"submitted_at,omitempty"`
	Score        float64        `json:"score"`
	Display      int            `json:"display_score"`
	Scores       []StudentScore `json:"scores"`
}

// ForStudent filters evals down to what a team member may read. Scores are
// listed in criterion order; scores for removed criteria are dropped. names
// maps judge id to full name and may be nil.
func ForStudent(evals []evaluation.Evaluation, list []criteria.Criterion, names map[string]string) []StudentEvaluation {
	ordered := append([]criteria.Criterion(nil), list...)
	criteria.Sort(ordered)
	sc := criteria.ToScoring(ordered)

	out := []StudentEvaluation{}
	for _, e := range evals {
		if !CanStudentView(e) {
			continue
		}
		raw := e.Raw()
		notes := make(map[string]string, len(e.Scores))
		for _, s := range e.Scores {
			notes[s.CriterionID] = s.Note
		}
		se := StudentEvaluation{
			ID:           e.ID,
			JudgeID:      e.JudgeID,
			JudgeName:    names[e.JudgeID],
			GeneralNotes: e.GeneralNotes,
			SubmittedAt:  e.SubmittedAt,
			Score:        scoring.EvaluationScore(sc, raw),
			Scores:       []StudentScore{},
		}
		se.Display = scoring.Display(se.Score)
		for _, c := range ordered {
			v, ok := raw[c.ID]
			if !ok {
				continue
			}
			se.Scores = append(se.Scores, StudentScore{
				CriterionID: c.ID, NameEN: c.NameEN, NameHE: c.NameHE,
				Score: v, MaxScore: c.MaxScore, Note: notes[c.ID],
			})
		}
		out = append(out, se)
	}
	return out
}

// CompleteCount counts only what a student can see.
func CompleteCount(evals []evaluation.Evaluation) int {
	n := 0
	for _, e := range evals {
		if CanStudentView(e) {
			n++
		}
	}
	return n
}
