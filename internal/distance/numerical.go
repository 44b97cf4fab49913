package distance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/peekknuf/anonscore/internal/dataset"
)

// numericPair coerces both columns. Missing values are dropped; a single
// non-numeric value on either side makes the pair degenerate.
func numericPair(x, y []dataset.Value) ([]float64, []float64, Result, bool) {
	xs, ok := dataset.Floats(x)
	if !ok {
		return nil, nil, Degenerate(ReasonNotNumeric), false
	}
	ys, ok := dataset.Floats(y)
	if !ok {
		return nil, nil, Degenerate(ReasonNotNumeric), false
	}
	if len(xs) == 0 || len(ys) == 0 {
		return nil, nil, Degenerate(ReasonEmpty), false
	}
	return xs, ys, Result{}, true
}

// DistributionShift is the first-order Wasserstein distance between x and y
// normalized by the range of x, capped at 1.
func DistributionShift(x, y []dataset.Value) Result {
	xs, ys, res, ok := numericPair(x, y)
	if !ok {
		return res
	}
	wd := Wasserstein(xs, ys)
	if math.IsNaN(wd) || math.IsInf(wd, 0) {
		return Degenerate(ReasonNonFinite)
	}

	xRange := floats.Max(xs) - floats.Min(xs)
	if xRange == 0 {
		if wd == 0 {
			return OK(0)
		}
		return OK(1)
	}
	return OK(math.Min(1, wd/xRange))
}

// DistributionShape is the two-sample Kolmogorov-Smirnov statistic.
func DistributionShape(x, y []dataset.Value) Result {
	xs, ys, res, ok := numericPair(x, y)
	if !ok {
		return res
	}
	sort.Float64s(xs)
	sort.Float64s(ys)
	return OK(stat.KolmogorovSmirnov(xs, nil, ys, nil))
}

// CentralTendency is the absolute difference of means in units of the
// sample standard deviation of x, capped at 1.
func CentralTendency(x, y []dataset.Value) Result {
	xs, ys, res, ok := numericPair(x, y)
	if !ok {
		return res
	}
	meanDiff := math.Abs(stat.Mean(xs, nil) - stat.Mean(ys, nil))
	if math.IsNaN(meanDiff) || math.IsInf(meanDiff, 0) {
		return Degenerate(ReasonNonFinite)
	}

	var sd float64
	if len(xs) > 1 {
		sd = stat.StdDev(xs, nil)
	}
	if sd == 0 || math.IsNaN(sd) {
		if meanDiff == 0 {
			return OK(0)
		}
		return OK(1)
	}
	return OK(math.Min(1, meanDiff/sd))
}

// Wasserstein computes the 1-D earth mover's distance between the empirical
// distributions of u and v: the area between their CDFs. Inputs are not
// modified.
func Wasserstein(u, v []float64) float64 {
	if len(u) == 0 || len(v) == 0 {
		return math.NaN()
	}
	us := sortedCopy(u)
	vs := sortedCopy(v)

	all := make([]float64, 0, len(us)+len(vs))
	all = append(all, us...)
	all = append(all, vs...)
	sort.Float64s(all)

	nu, nv := float64(len(us)), float64(len(vs))
	var total float64
	iu, iv := 0, 0
	for i := 0; i < len(all)-1; i++ {
		cur := all[i]
		for iu < len(us) && us[iu] <= cur {
			iu++
		}
		for iv < len(vs) && vs[iv] <= cur {
			iv++
		}
		delta := all[i+1] - cur
		if delta == 0 {
			continue
		}
		total += math.Abs(float64(iu)/nu-float64(iv)/nv) * delta
	}
	return total
}

func sortedCopy(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	sort.Float64s(out)
	return out
}
