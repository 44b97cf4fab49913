package scoring

import "math"

const (
	minScore = 1
	maxScore = 100
)

// Interpretation bands, lowest first. A score belongs to the first band whose
// upper bound it is below.
var bands = []struct {
	upper float64
	text  string
}{
	{20, "Very Low Anonymization - Data is largely unchanged"},
	{40, "Low Anonymization - Some changes but patterns remain"},
	{60, "Moderate Anonymization - Reasonable privacy protection"},
	{80, "High Anonymization - Strong privacy protection"},
	{math.Inf(1), "Very High Anonymization - Maximum privacy protection"},
}

// ScoreResult is the outcome of one scoring call.
type ScoreResult struct {
	GlobalScore    float64               `json:"global_score"`
	GlobalDistance float64               `json:"global_distance"`
	ColumnScores   map[string]float64    `json:"column_scores"`
	ColumnTypes    map[string]ColumnType `json:"column_types"`
	TotalColumns   int                   `json:"total_columns"`
	Interpretation string                `json:"interpretation"`

	// Columns keeps the dataset column order for reproducible reports.
	Columns []string `json:"columns"`
	// NoSignal is set when no column carried weight; the zero distance then
	// means nothing was measured, not that nothing changed.
	NoSignal bool `json:"no_signal"`

	Details []ColumnScore `json:"-"`
}

// Aggregate combines column distances into a weighted global distance and
// rescales it to the 1-100 score. Columns missing from weights weigh 1;
// negative or non-finite weights count as 0.
func Aggregate(columns []ColumnScore, weights map[string]float64) ScoreResult {
	res := ScoreResult{
		ColumnScores: make(map[string]float64, len(columns)),
		ColumnTypes:  make(map[string]ColumnType, len(columns)),
		Columns:      make([]string, 0, len(columns)),
		TotalColumns: len(columns),
		Details:      columns,
	}

	var weightedSum, totalWeight float64
	for _, c := range columns {
		w := weightFor(weights, c.Name)
		weightedSum += w * clamp01(c.Distance)
		totalWeight += w

		res.ColumnScores[c.Name] = round(c.Distance, 4)
		res.ColumnTypes[c.Name] = c.Type
		res.Columns = append(res.Columns, c.Name)
	}

	var global float64
	if totalWeight > 0 {
		global = clamp01(weightedSum / totalWeight)
	} else {
		res.NoSignal = true
	}

	score := math.Max(minScore, math.Min(maxScore, minScore+(maxScore-minScore)*global))
	res.GlobalDistance = round(global, 4)
	res.GlobalScore = round(score, 2)
	res.Interpretation = Interpret(score)
	return res
}

// Interpret returns the qualitative band of a 1-100 score.
func Interpret(score float64) string {
	for _, b := range bands {
		if score < b.upper {
			return b.text
		}
	}
	return bands[len(bands)-1].text
}

func weightFor(weights map[string]float64, name string) float64 {
	w, ok := weights[name]
	if !ok {
		return 1
	}
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
