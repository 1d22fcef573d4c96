package evaluation

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-judging/internal/domain"
)

type State string

const (
	StateAbsent   State = "absent"
	StateDraft    State = "draft"
	StateComplete State = "complete"
)

type Action string

const (
	ActionSave   Action = "save"
	ActionSubmit Action = "submit"
	ActionReopen Action = "reopen"
)

var (
	ErrNoCriteria        = fmt.Errorf("conference has no evaluation criteria, nothing can be submitted: %w", domain.ErrPrecondition)
	ErrNoScores          = fmt.Errorf("cannot submit an evaluation without scores: %w", domain.ErrPrecondition)
	ErrInvalidTransition = fmt.Errorf("invalid evaluation transition: %w", domain.ErrConflict)
	ErrNotAssigned       = fmt.Errorf("judge is not assigned to this project: %w", domain.ErrForbidden)
	errUnknownAction     = errors.New("unknown action")
)

// Transition is the evaluation lifecycle:
//
//	absent   --save-->   draft
//	absent   --submit--> complete   (needs criteria)
//	draft    --save-->   draft
//	draft    --submit--> complete   (needs criteria)
//	complete --save-->   complete
//	complete --submit--> complete
//	complete --reopen--> draft
func Transition(from State, a Action, criteriaCount int) (State, error) {
	switch a {
	case ActionSave:
		switch from {
		case StateAbsent, StateDraft:
			return StateDraft, nil
		case StateComplete:
			return StateComplete, nil
		}
	case ActionSubmit:
		if criteriaCount <= 0 {
			return from, ErrNoCriteria
		}
		switch from {
		case StateAbsent, StateDraft, StateComplete:
			return StateComplete, nil
		}
	case ActionReopen:
		if from == StateComplete {
			return StateDraft, nil
		}
		return from, fmt.Errorf("reopen from %s: %w", from, ErrInvalidTransition)
	default:
		return from, fmt.Errorf("%w: %q", errUnknownAction, a)
	}
	return from, fmt.Errorf("%s from %q: %w", a, from, ErrInvalidTransition)
}
