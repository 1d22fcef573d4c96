package scoring

import "math"

// Criterion is the minimal view of a rubric dimension the engine needs.
// Keep this in sync with criteria.Criterion.
type Criterion struct {
	ID       string
	MaxScore int
	Weight   float64
}

// Evaluation is one judge's raw scores keyed by criterion id.
type Evaluation struct {
	Complete bool
	Raw      map[string]int
}

// Aggregate is a project-level result. Valid is false when no complete
// evaluation contributed; a zero Value with Valid=true means "scored zero".
type Aggregate struct {
	Value float64
	Count int
	Valid bool
}

// EvaluationScore returns the weighted 0..100 score of one evaluation.
//
// Every criterion in the list participates; a criterion without a raw score
// counts as 0. Raw scores are clamped to [0, MaxScore] so a max lowered after
// scoring can't push a criterion past 100%. Raw entries whose criterion is not
// in the list are ignored. The result is unrounded; use Display for output.
func EvaluationScore(criteria []Criterion, raw map[string]int) float64 {
	var weighted, total float64
	for _, c := range criteria {
		if c.MaxScore <= 0 || !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
			continue
		}
		v := raw[c.ID]
		if v < 0 {
			v = 0
		}
		if v > c.MaxScore {
			v = c.MaxScore
		}
		normalized := float64(v) * 100 / float64(c.MaxScore)
		weighted += normalized * c.Weight
		total += c.Weight
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

// ProjectAggregate is the arithmetic mean of per-evaluation weighted scores.
// Callers pass unrounded values of complete evaluations only.
func ProjectAggregate(scores []float64) Aggregate {
	if len(scores) == 0 {
		return Aggregate{}
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return Aggregate{Value: sum / float64(len(scores)), Count: len(scores), Valid: true}
}

// AggregateEvaluations scores every complete evaluation against the current
// criteria and averages them. Drafts are skipped.
func AggregateEvaluations(criteria []Criterion, evals []Evaluation) Aggregate {
	scores := make([]float64, 0, len(evals))
	for _, e := range evals {
		if !e.Complete {
			continue
		}
		scores = append(scores, EvaluationScore(criteria, e.Raw))
	}
	return ProjectAggregate(scores)
}
