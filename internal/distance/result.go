// Package distance implements the statistical distances used to compare an
// original column with its transformed counterpart. Every metric returns a
// Result: either a distance in [0,1] or a degeneracy reason explaining why no
// meaningful distance exists. Callers pick the fallback value per reason.
package distance

import (
	"fmt"
	"math"
)

// Reason names why a metric could not be computed meaningfully.
type Reason string

const (
	ReasonEmpty            Reason = "empty"
	ReasonConstant         Reason = "constant"
	ReasonDegenerateTable  Reason = "degenerate_table"
	ReasonSmallSample      Reason = "small_sample"
	ReasonNotNumeric       Reason = "not_numeric"
	ReasonNonPositiveDenom Reason = "non_positive_denominator"
	ReasonNonFinite        Reason = "non_finite"
)

// Result is the tagged outcome of a metric.
type Result struct {
	Distance float64
	Reason   Reason
}

func OK(d float64) Result {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Degenerate(ReasonNonFinite)
	}
	return Result{Distance: clamp01(d)}
}

func Degenerate(reason Reason) Result {
	return Result{Reason: reason}
}

func (r Result) IsDegenerate() bool {
	return r.Reason != ""
}

// Or returns the distance, or fallback when the result is degenerate.
func (r Result) Or(fallback float64) float64 {
	if r.IsDegenerate() {
		return fallback
	}
	return r.Distance
}

func (r Result) String() string {
	if r.IsDegenerate() {
		return fmt.Sprintf("degenerate(%s)", r.Reason)
	}
	return fmt.Sprintf("%.4f", r.Distance)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
