package report

import (
	"sort"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// Row is one project line of a conference report.
type Row struct {
	Rank           int               `json:"rank"` // 0 when the project has no data
	ProjectID      string            `json:"project_id"`
	TitleEN        string            `json:"title_en"`
	TitleHE        string            `json:"title_he"`
	TeamMembers    []string          `json:"team_members"`
	Department     string            `json:"department,omitempty"`
	Room           string            `json:"room,omitempty"`
	AssignedJudges int               `json:"assigned_judges"`
	Submitted      int               `json:"evaluations_submitted"`
	Aggregate      scoring.Aggregate `json:"-"`
	Score          *float64          `json:"aggregate"`
	Display        *int              `json:"display_score"`
}

func (r *Row) setAggregate(a scoring.Aggregate) {
	r.Aggregate = a
	r.Score, r.Display = nil, nil
	if a.Valid {
		v := a.Value
		d := scoring.Display(v)
		r.Score, r.Display = &v, &d
	}
}

// Rank orders rows in place and assigns competition ranks ("1224") on the
// unrounded aggregate. Ties and unscored projects order by project id; unscored
// projects come last with rank 0.
func Rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Aggregate, rows[j].Aggregate
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && a.Value != b.Value {
			return a.Value > b.Value
		}
		return rows[i].ProjectID < rows[j].ProjectID
	})
	for i := range rows {
		switch {
		case !rows[i].Aggregate.Valid:
			rows[i].Rank = 0
		case i > 0 && rows[i-1].Aggregate.Valid && rows[i-1].Aggregate.Value == rows[i].Aggregate.Value:
			rows[i].Rank = rows[i-1].Rank
		default:
			rows[i].Rank = i + 1
		}
	}
}
