package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
	syncx "github.com/mind-engage/mindengage-judging/internal/sync"
)

// EventSink receives one event per accepted transition.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Recorder counts judge actions by outcome.
type Recorder interface {
	EvaluationAction(action, outcome string)
}

// Service is the judge workflow. Every method takes the judge identity from
// the actor, never from input.
type Service struct {
	Evals    Store
	Criteria criteria.Store
	Projects projects.Store
	Events   EventSink // optional
	Metrics  Recorder  // optional
	SiteID   string
}

// View is what a judge sees for one assigned project.
type View struct {
	Project    projects.Project     `json:"project"`
	State      State                `json:"state"`
	Evaluation *Evaluation          `json:"evaluation,omitempty"`
	Criteria   []criteria.Criterion `json:"criteria"`
	Score      float64              `json:"score"`
	Display    int                  `json:"display_score"`
}

type target struct {
	project  projects.Project
	criteria []criteria.Criterion
	current  *Evaluation
}

func (t target) state() State {
	if t.current == nil {
		return StateAbsent
	}
	return t.current.State()
}

func (s *Service) load(ctx context.Context, actor rbac.Actor, projectID string) (target, error) {
	if !actor.Caps.Evaluate {
		return target{}, fmt.Errorf("role %s cannot evaluate: %w", actor.Role, domain.ErrForbidden)
	}
	p, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return target{}, err
	}
	ok, err := s.Projects.IsAssigned(ctx, projectID, actor.ID)
	if err != nil {
		return target{}, err
	}
	if !ok {
		return target{}, ErrNotAssigned
	}
	crit, err := s.Criteria.ForConference(ctx, p.ConferenceID)
	if err != nil {
		return target{}, err
	}
	t := target{project: p, criteria: crit}
	cur, err := s.Evals.Find(ctx, projectID, actor.ID)
	switch {
	case err == nil:
		t.current = &cur
	case errors.Is(err, domain.ErrNotFound):
	default:
		return target{}, err
	}
	return t, nil
}

func (s *Service) view(t target) View {
	v := View{Project: t.project, State: t.state(), Evaluation: t.current, Criteria: t.criteria}
	if t.current != nil {
		v.Score = scoring.EvaluationScore(criteria.ToScoring(t.criteria), t.current.Raw())
		v.Display = scoring.Display(v.Score)
	}
	return v
}

// Get returns the actor's evaluation of projectID, or StateAbsent.
func (s *Service) Get(ctx context.Context, actor rbac.Actor, projectID string) (View, error) {
	t, err := s.load(ctx, actor, projectID)
	if err != nil {
		return View{}, err
	}
	return s.view(t), nil
}

// Save stores a draft (or updates a complete evaluation in place).
func (s *Service) Save(ctx context.Context, actor rbac.Actor, projectID string, in SaveInput) (View, error) {
	return s.write(ctx, actor, projectID, ActionSave, &in)
}

// Submit marks the evaluation complete. A nil input submits the stored
// content unchanged.
func (s *Service) Submit(ctx context.Context, actor rbac.Actor, projectID string, in *SaveInput) (View, error) {
	return s.write(ctx, actor, projectID, ActionSubmit, in)
}

// Reopen moves a complete evaluation back to draft, keeping its scores.
func (s *Service) Reopen(ctx context.Context, actor rbac.Actor, projectID string) (View, error) {
	return s.write(ctx, actor, projectID, ActionReopen, nil)
}

func (s *Service) write(ctx context.Context, actor rbac.Actor, projectID string, a Action, in *SaveInput) (View, error) {
	v, err := s.doWrite(ctx, actor, projectID, a, in)
	s.record(a, err)
	return v, err
}

func (s *Service) doWrite(ctx context.Context, actor rbac.Actor, projectID string, a Action, in *SaveInput) (View, error) {
	t, err := s.load(ctx, actor, projectID)
	if err != nil {
		return View{}, err
	}
	from := t.state()
	to, err := Transition(from, a, len(t.criteria))
	if err != nil {
		return View{}, err
	}

	var scores []Score
	switch {
	case in != nil:
		if scores, err = checkInput(*in, t.criteria); err != nil {
			return View{}, err
		}
	case t.current != nil:
		scores = t.current.Scores
	}
	// a complete evaluation always carries at least one score
	if to == StateComplete && len(scores) == 0 {
		return View{}, ErrNoScores
	}

	var saved Evaluation
	if in == nil {
		notes := ""
		if t.current != nil {
			notes = t.current.GeneralNotes
		}
		saved, err = s.Evals.UpsertEvaluation(ctx, projectID, actor.ID, notes, to == StateComplete)
	} else {
		saved, err = s.Evals.Save(ctx, projectID, actor.ID, in.GeneralNotes, to == StateComplete, scores)
	}
	if err != nil {
		return View{}, err
	}
	t.current = &saved
	out := s.view(t)
	s.emit(ctx, actor, a, from, to, out)
	return out, nil
}

// checkInput rejects anything the ledger must never hold. Out-of-range scores
// are errors here; clamping only happens when reading.
func checkInput(in SaveInput, list []criteria.Criterion) ([]Score, error) {
	if err := domain.ValidateStruct("evaluation", in); err != nil {
		return nil, err
	}
	byID := criteria.ByID(list)
	ve := domain.NewValidationError("evaluation")
	seen := make(map[string]bool, len(in.Scores))
	out := make([]Score, 0, len(in.Scores))
	for _, si := range in.Scores {
		c, ok := byID[si.CriterionID]
		switch {
		case !ok:
			ve.Add("unknown criterion %s", si.CriterionID)
			continue
		case seen[si.CriterionID]:
			ve.Add("duplicate score for criterion %s", si.CriterionID)
			continue
		case si.Score < 0 || si.Score > c.MaxScore:
			ve.Add("score %d for criterion %s outside 0..%d", si.Score, si.CriterionID, c.MaxScore)
		}
		seen[si.CriterionID] = true
		out = append(out, Score{CriterionID: si.CriterionID, Score: si.Score, Note: si.Note})
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type transitionData struct {
	ProjectID string  `json:"project_id"`
	From      State   `json:"from"`
	To        State   `json:"to"`
	Score     float64 `json:"score"`
	Scores    int     `json:"scores"`
}

func (s *Service) emit(ctx context.Context, actor rbac.Actor, a Action, from, to State, v View) {
	if s.Events == nil || v.Evaluation == nil {
		return
	}
	data, _ := json.Marshal(transitionData{
		ProjectID: v.Project.ID, From: from, To: to, Score: v.Score, Scores: len(v.Evaluation.Scores),
	})
	ev := syncx.Event{
		SiteID:   s.SiteID,
		Type:     "evaluation." + string(a),
		Key:      v.Evaluation.ID,
		ActorID:  actor.ID,
		DataJSON: string(data),
	}
	if err := s.Events.Append(ctx, ev); err != nil {
		log.Printf("evaluation %s: append %s event: %v", v.Evaluation.ID, a, err)
	}
}

func (s *Service) record(a Action, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	var ve *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		outcome = "invalid"
	case errors.Is(err, domain.ErrForbidden):
		outcome = "forbidden"
	case errors.Is(err, domain.ErrPrecondition), errors.Is(err, domain.ErrConflict):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	s.Metrics.EvaluationAction(string(a), outcome)
}
