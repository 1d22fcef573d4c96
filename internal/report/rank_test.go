package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

func scored(id string, v float64) Row {
	var r Row
	r.ProjectID = id
	r.setAggregate(scoring.Aggregate{Value: v, Count: 1, Valid: true})
	return r
}

func TestRankCompetition(t *testing.T) {
	rows := []Row{
		{ProjectID: "z-nodata"},
		scored("p4", 50),
		scored("p2", 80),
		{ProjectID: "a-nodata"},
		scored("p3", 80),
		scored("p1", 90),
		scored("p5", 0),
	}
	Rank(rows)

	var ids []string
	var ranks []int
	for _, r := range rows {
		ids = append(ids, r.ProjectID)
		ranks = append(ranks, r.Rank)
	}
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "a-nodata", "z-nodata"}, ids)
	assert.Equal(t, []int{1, 2, 2, 4, 5, 0, 0}, ranks)
}

func TestRankUsesUnroundedValues(t *testing.T) {
	// both display as 73, but they are not tied
	rows := []Row{scored("a", 73.3), scored("b", 73.4)}
	Rank(rows)
	assert.Equal(t, "b", rows[0].ProjectID)
	assert.Equal(t, []int{1, 2}, []int{rows[0].Rank, rows[1].Rank})
	assert.Equal(t, *rows[0].Display, *rows[1].Display)
}

func TestRankEmpty(t *testing.T) {
	var rows []Row
	Rank(rows)
	assert.Empty(t, rows)
}
