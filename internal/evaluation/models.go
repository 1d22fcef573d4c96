package evaluation

import "github.com/mind-engage/mindengage-judging/internal/scoring"

// Evaluation is one judge's assessment of one project. At most one exists per
// (project, judge).
type Evaluation struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	JudgeID      string  `json:"judge_id"`
	IsComplete   bool    `json:"is_complete"`
	GeneralNotes string  `json:"general_notes,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
	SubmittedAt  *int64  `json:"submitted_at,omitempty"`
	Scores       []Score `json:"scores"`
}

// State of a stored evaluation; StateAbsent is never stored.
func (e Evaluation) State() State {
	if e.IsComplete {
		return StateComplete
	}
	return StateDraft
}

// Raw returns criterion id -> raw score.
func (e Evaluation) Raw() map[string]int {
	m := make(map[string]int, len(e.Scores))
	for _, s := range e.Scores {
		m[s.CriterionID] = s.Score
	}
	return m
}

// ForScoring projects the evaluation onto the engine's view.
func (e Evaluation) ForScoring() scoring.Evaluation {
	return scoring.Evaluation{Complete: e.IsComplete, Raw: e.Raw()}
}

// Score is one raw rating in the ledger.
type Score struct {
	EvaluationID string `json:"evaluation_id,omitempty"`
	CriterionID  string `json:"criterion_id"`
	Score        int    `json:"score"`
	Note         string `json:"note,omitempty"`
}

type ScoreInput struct {
	CriterionID string `json:"criterion_id" validate:"required"`
	Score       int    `json:"score"`
	Note        string `json:"note,omitempty" validate:"max=2000"`
}

// SaveInput is the full content of an evaluation save. Scores replace the
// stored set entirely.
type SaveInput struct {
	GeneralNotes string       `json:"general_notes" validate:"max=10000"`
	Scores       []ScoreInput `json:"scores" validate:"dive"`
}
