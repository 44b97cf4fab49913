package distance

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/peekknuf/anonscore/internal/dataset"
)

// Association is 1 minus the bias-corrected Cramér's V (Bergsma & Wicher)
// between the paired values of x and y. Missing values are dropped from each
// side and the longer side is truncated to the shorter one.
func Association(x, y []dataset.Value) Result {
	xc, yc := alignedPairs(x, y)
	if len(xc) == 0 {
		return Degenerate(ReasonEmpty)
	}
	if dataset.Distinct(xc) == 1 || dataset.Distinct(yc) == 1 {
		return Degenerate(ReasonConstant)
	}

	table := newContingency(xc, yc)
	r, k := table.shape()
	if r == 1 || k == 1 {
		return Degenerate(ReasonDegenerateTable)
	}
	n := float64(table.total)
	if n <= 1 {
		return Degenerate(ReasonSmallSample)
	}

	phi2 := table.chiSquare() / n
	rf, kf := float64(r), float64(k)
	phi2corr := math.Max(0, phi2-((kf-1)*(rf-1))/(n-1))
	rcorr := rf - ((rf-1)*(rf-1))/(n-1)
	kcorr := kf - ((kf-1)*(kf-1))/(n-1)

	var v float64
	if denom := math.Min(kcorr-1, rcorr-1); denom > 0 {
		v = math.Sqrt(phi2corr / denom)
	} else {
		denom = math.Min(kf-1, rf-1)
		if denom <= 0 {
			return Degenerate(ReasonNonPositiveDenom)
		}
		v = math.Sqrt(phi2 / denom)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Degenerate(ReasonNonFinite)
	}
	return OK(1 - clamp01(v))
}

// SetOverlap is the Jaccard distance between the distinct non-missing values
// of x and y.
func SetOverlap(x, y []dataset.Value) Result {
	setX := keySet(x)
	setY := keySet(y)
	if len(setX) == 0 && len(setY) == 0 {
		return OK(0)
	}

	intersection := 0
	for k := range setX {
		if _, ok := setY[k]; ok {
			intersection++
		}
	}
	union := len(setX) + len(setY) - intersection
	if union == 0 {
		return OK(1)
	}
	return OK(1 - float64(intersection)/float64(union))
}

func keySet(col []dataset.Value) map[any]struct{} {
	set := make(map[any]struct{}, len(col))
	for _, v := range col {
		if dataset.IsMissing(v) {
			continue
		}
		set[dataset.Key(v)] = struct{}{}
	}
	return set
}

// alignedPairs drops missing values on each side independently and truncates
// both to the shorter length.
func alignedPairs(x, y []dataset.Value) ([]dataset.Value, []dataset.Value) {
	xc := dataset.DropMissing(x)
	yc := dataset.DropMissing(y)
	n := min(len(xc), len(yc))
	return xc[:n], yc[:n]
}

type contingency struct {
	rows   map[any]int
	cols   map[any]int
	counts [][]float64
	total  int
}

func newContingency(x, y []dataset.Value) *contingency {
	t := &contingency{
		rows: make(map[any]int),
		cols: make(map[any]int),
	}
	for i := range x {
		kx, ky := dataset.Key(x[i]), dataset.Key(y[i])
		ri, ok := t.rows[kx]
		if !ok {
			ri = len(t.rows)
			t.rows[kx] = ri
			t.counts = append(t.counts, make([]float64, len(t.cols)))
		}
		ci, ok := t.cols[ky]
		if !ok {
			ci = len(t.cols)
			t.cols[ky] = ci
			for j := range t.counts {
				t.counts[j] = append(t.counts[j], 0)
			}
		}
		t.counts[ri][ci]++
		t.total++
	}
	return t
}

func (t *contingency) shape() (int, int) {
	return len(t.rows), len(t.cols)
}

// chiSquare is Pearson's statistic of independence. Tables with one degree of
// freedom get Yates' continuity correction.
func (t *contingency) chiSquare() float64 {
	r, k := t.shape()
	rowSums := make([]float64, r)
	colSums := make([]float64, k)
	for i, row := range t.counts {
		for j, c := range row {
			rowSums[i] += c
			colSums[j] += c
		}
	}

	n := float64(t.total)
	yates := (r-1)*(k-1) == 1
	obs := make([]float64, 0, r*k)
	exp := make([]float64, 0, r*k)
	for i, row := range t.counts {
		for j, c := range row {
			e := rowSums[i] * colSums[j] / n
			if yates {
				diff := e - c
				c += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			obs = append(obs, c)
			exp = append(exp, e)
		}
	}
	return stat.ChiSquare(obs, exp)
}
