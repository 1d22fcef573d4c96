package scoring

import (
	"math"
	"strconv"
)

// Display rounds a score for presentation. Never feed the result back into
// ProjectAggregate.
func Display(v float64) int {
	return int(math.Round(v))
}

// DisplayAggregate is Display for an aggregate; ok is false for "no data".
func DisplayAggregate(a Aggregate) (v int, ok bool) {
	if !a.Valid {
		return 0, false
	}
	return Display(a.Value), true
}

// FormatOneDecimal is the export representation of a score.
func FormatOneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}

// FormatAggregate renders an aggregate for export; "no data" is the empty string.
func FormatAggregate(a Aggregate) string {
	if !a.Valid {
		return ""
	}
	return FormatOneDecimal(a.Value)
}
