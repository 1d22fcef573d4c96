package report

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/domain"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
	"github.com/mind-engage/mindengage-judging/internal/visibility"
)

var ErrNotTeamMember = fmt.Errorf("student is not a member of this project: %w", domain.ErrForbidden)

// Grades is the student's read-only view of their own projects.
type Grades struct {
	Projects projects.Store
	Criteria criteria.Store
	Evals    evaluation.Store
}

type StudentGrade struct {
	ProjectID     string                         `json:"project_id"`
	TitleEN       string                         `json:"title_en"`
	TitleHE       string                         `json:"title_he"`
	HasGrade      bool                           `json:"has_grade"`
	Score         *float64                       `json:"aggregate,omitempty"`
	Display       *int                           `json:"display_score,omitempty"`
	CompleteCount int                            `json:"complete_count"`
	Evaluations   []visibility.StudentEvaluation `json:"evaluations"`
}

func (g *Grades) StudentGrade(ctx context.Context, actor rbac.Actor, projectID string) (StudentGrade, error) {
	if !actor.Caps.ViewOwnGrades {
		return StudentGrade{}, fmt.Errorf("role %s has no grades: %w", actor.Role, domain.ErrForbidden)
	}
	p, err := g.Projects.Get(ctx, projectID)
	if err != nil {
		return StudentGrade{}, err
	}
	ok, err := g.Projects.IsTeamMember(ctx, projectID, actor.ID)
	if err != nil {
		return StudentGrade{}, err
	}
	if !ok {
		return StudentGrade{}, ErrNotTeamMember
	}
	return g.grade(ctx, p)
}

// StudentGrades returns one grade per project the student belongs to.
func (g *Grades) StudentGrades(ctx context.Context, actor rbac.Actor) ([]StudentGrade, error) {
	if !actor.Caps.ViewOwnGrades {
		return nil, fmt.Errorf("role %s has no grades: %w", actor.Role, domain.ErrForbidden)
	}
	ps, err := g.Projects.ForStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]StudentGrade, 0, len(ps))
	for _, p := range ps {
		sg, err := g.grade(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, nil
}

func (g *Grades) grade(ctx context.Context, p projects.Project) (StudentGrade, error) {
	crit, err := g.Criteria.ForConference(ctx, p.ConferenceID)
	if err != nil {
		return StudentGrade{}, err
	}
	done, err := g.Evals.CompleteForProject(ctx, p.ID)
	if err != nil {
		return StudentGrade{}, err
	}
	judges, err := g.Projects.Judges(ctx, p.ID)
	if err != nil {
		return StudentGrade{}, err
	}
	names := make(map[string]string, len(judges))
	for _, j := range judges {
		names[j.ID] = j.FullName
	}

	visible := visibility.ForStudent(done, crit, names)
	scores := make([]float64, len(visible))
	for i, v := range visible {
		scores[i] = v.Score
	}
	agg := scoring.ProjectAggregate(scores)

	sg := StudentGrade{
		ProjectID:     p.ID,
		TitleEN:       p.TitleEN,
		TitleHE:       p.TitleHE,
		HasGrade:      agg.Valid,
		CompleteCount: len(visible),
		Evaluations:   visible,
	}
	if agg.Valid {
		v := agg.Value
		d := scoring.Display(v)
		sg.Score, sg.Display = &v, &d
	}
	return sg, nil
}
