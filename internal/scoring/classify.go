package scoring

import "github.com/peekknuf/anonscore/internal/dataset"

// ColumnType selects which metrics compare a column.
type ColumnType string

const (
	Numerical   ColumnType = "numerical"
	Categorical ColumnType = "categorical"
	Text        ColumnType = "text"
)

// categoricalRatio is the distinct/total ratio below which a non-numeric
// column counts as categorical.
const categoricalRatio = 0.5

// Classify tags a column by its non-missing values. Empty columns are
// categorical; columns whose every value coerces to a number are numerical;
// otherwise the distinct ratio decides between categorical and text.
func Classify(col []dataset.Value) ColumnType {
	clean := dataset.DropMissing(col)
	if len(clean) == 0 {
		return Categorical
	}
	if _, ok := dataset.Floats(clean); ok {
		return Numerical
	}
	ratio := float64(dataset.Distinct(clean)) / float64(len(clean))
	if ratio < categoricalRatio {
		return Categorical
	}
	return Text
}
