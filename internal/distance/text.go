package distance

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/peekknuf/anonscore/internal/dataset"
)

// DefaultTextSample caps how many aligned pairs SequenceSimilarity compares.
const DefaultTextSample = 100

// TextOverlap is the share of distinct original values that no longer appear
// in the transformed column.
func TextOverlap(x, y []dataset.Value) Result {
	ux := textSet(x)
	if len(ux) == 0 {
		return OK(0)
	}
	uy := textSet(y)

	common := 0
	for s := range ux {
		if _, ok := uy[s]; ok {
			common++
		}
	}
	return OK(1 - float64(common)/float64(len(ux)))
}

// SequenceSimilarity is 1 minus the mean sequence-matcher ratio over the
// first sample aligned pairs of non-missing values. The head of the column is
// compared so results stay reproducible.
func SequenceSimilarity(x, y []dataset.Value, sample int) Result {
	if sample <= 0 {
		sample = DefaultTextSample
	}
	xc, yc := alignedPairs(x, y)
	if len(xc) == 0 {
		return Degenerate(ReasonEmpty)
	}

	n := min(len(xc), sample)
	var sum float64
	for i := 0; i < n; i++ {
		sum += Ratio(dataset.Text(xc[i]), dataset.Text(yc[i]))
	}
	return OK(1 - sum/float64(n))
}

// TextSimilarity averages TextOverlap and SequenceSimilarity. A degenerate
// sequence component counts as fully divergent.
func TextSimilarity(x, y []dataset.Value, sample int) float64 {
	overlap := TextOverlap(x, y).Or(0)
	seq := SequenceSimilarity(x, y, sample).Or(1)
	return (overlap + seq) / 2
}

// Ratio is the character-level similarity 2*M/T of a and b, where M counts
// matched characters and T is the combined length.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func textSet(col []dataset.Value) map[string]struct{} {
	set := make(map[string]struct{}, len(col))
	for _, v := range col {
		if dataset.IsMissing(v) {
			continue
		}
		set[dataset.Text(v)] = struct{}{}
	}
	return set
}
