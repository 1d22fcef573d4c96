// Package report turns stored evaluations into ranked conference reports,
// completion summaries, exports and the student grade view. Nothing is
// cached; every call recomputes from the store.
package report

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-judging/internal/criteria"
	"github.com/mind-engage/mindengage-judging/internal/evaluation"
	"github.com/mind-engage/mindengage-judging/internal/projects"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// Observer times report builds.
type Observer interface {
	ObserveReport(kind string, d time.Duration)
}

type Builder struct {
	Criteria    criteria.Store
	Projects    projects.Store
	Evals       evaluation.Store
	Concurrency int      // per-project loads in flight; <1 means 4
	Metrics     Observer // optional
	Now         func() time.Time
}

type Report struct {
	ConferenceID string               `json:"conference_id"`
	GeneratedAt  int64                `json:"generated_at"`
	Criteria     []criteria.Criterion `json:"criteria"`
	Rows         []Row                `json:"rows"`
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) observe(kind string, start time.Time) {
	if b.Metrics != nil {
		b.Metrics.ObserveReport(kind, time.Since(start))
	}
}

// Build ranks every project of the conference.
func (b *Builder) Build(ctx context.Context, conferenceID string) (Report, error) {
	defer b.observe("ranking", time.Now())

	crit, err := b.Criteria.ForConference(ctx, conferenceID)
	if err != nil {
		return Report{}, err
	}
	ps, err := b.Projects.ListByConference(ctx, conferenceID)
	if err != nil {
		return Report{}, err
	}
	sc := criteria.ToScoring(crit)

	rows := make([]Row, len(ps))
	g, gctx := errgroup.WithContext(ctx)
	limit := b.Concurrency
	if limit < 1 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, p := range ps {
		i, p := i, p
		g.Go(func() error {
			row, err := b.row(gctx, p, sc)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	Rank(rows)

	return Report{
		ConferenceID: conferenceID,
		GeneratedAt:  b.now().Unix(),
		Criteria:     crit,
		Rows:         rows,
	}, nil
}

func (b *Builder) row(ctx context.Context, p projects.Project, sc []scoring.Criterion) (Row, error) {
	members, err := b.Projects.TeamMembers(ctx, p.ID)
	if err != nil {
		return Row{}, err
	}
	assigned, err := b.Projects.AssignedJudgeCount(ctx, p.ID)
	if err != nil {
		return Row{}, err
	}
	done, err := b.Evals.CompleteForProject(ctx, p.ID)
	if err != nil {
		return Row{}, err
	}
	evals := make([]scoring.Evaluation, len(done))
	for i, e := range done {
		evals[i] = e.ForScoring()
	}
	agg := scoring.AggregateEvaluations(sc, evals)

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.FullName
	}
	r := Row{
		ProjectID:      p.ID,
		TitleEN:        p.TitleEN,
		TitleHE:        p.TitleHE,
		TeamMembers:    names,
		Department:     p.Department,
		Room:           p.Room,
		AssignedJudges: assigned,
		Submitted:      agg.Count,
	}
	r.setAggregate(agg)
	return r, nil
}

// ScoredEvaluation is an evaluation with its weighted score, as managers see it.
type ScoredEvaluation struct {
	evaluation.Evaluation
	State   evaluation.State `json:"state"`
	Score   float64          `json:"score"`
	Display int              `json:"display_score"`
}

// ProjectDetail is the manager drill-down of one project. Drafts are listed
// but never feed the aggregate.
type ProjectDetail struct {
	Project     projects.Project   `json:"project"`
	Team        []projects.Member  `json:"team"`
	Judges      []projects.Member  `json:"judges"`
	Evaluations []ScoredEvaluation `json:"evaluations"`
	Submitted   int                `json:"evaluations_submitted"`
	Score       *float64           `json:"aggregate"`
	Display     *int               `json:"display_score"`
}

func (b *Builder) ProjectDetail(ctx context.Context, projectID string) (ProjectDetail, error) {
	defer b.observe("project", time.Now())

	p, err := b.Projects.Get(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	crit, err := b.Criteria.ForConference(ctx, p.ConferenceID)
	if err != nil {
		return ProjectDetail{}, err
	}
	team, err := b.Projects.TeamMembers(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	judges, err := b.Projects.Judges(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	all, err := b.Evals.ForProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}

	sc := criteria.ToScoring(crit)
	d := ProjectDetail{Project: p, Team: team, Judges: judges, Evaluations: []ScoredEvaluation{}}
	var complete []float64
	for _, e := range all {
		s := scoring.EvaluationScore(sc, e.Raw())
		d.Evaluations = append(d.Evaluations, ScoredEvaluation{Evaluation: e, State: e.State(), Score: s, Display: scoring.Display(s)})
		if e.IsComplete {
			complete = append(complete, s)
		}
	}
	var r Row
	r.setAggregate(scoring.ProjectAggregate(complete))
	d.Submitted = r.Aggregate.Count
	d.Score, d.Display = r.Score, r.Display
	return d, nil
}
