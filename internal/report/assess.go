package report

import (
	"fmt"
	"math"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/scoring"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

const (
	// Global scores below these are high and medium risk.
	highRiskScore   = 40
	mediumRiskScore = 60

	// A column whose distance is below this is barely transformed.
	highRiskDistance = 0.3
	// More than this share of high-risk columns makes the whole pair high risk.
	highRiskColumnShare = 0.3
	// A categorical column sharing more than this share of its original
	// values with the transformed column can help re-identify rows.
	retainedValueShare = 0.8
	// Above this share, a high-risk categorical column is told to randomize.
	randomizeValueShare = 0.5
	// Columns above this distance count as well anonymized, and fewer than
	// coverageShare of them triggers the coverage recommendation.
	wellAnonymizedDistance = 0.8
	coverageShare          = 0.5
)

// ColumnAnalysis compares one column's profile on both sides. Mean and
// standard deviation are set for numerical columns, modes and value overlap
// for categorical ones.
type ColumnAnalysis struct {
	Column            string             `json:"column"`
	Type              scoring.ColumnType `json:"type"`
	Distance          float64            `json:"distance"`
	OriginalUnique    int                `json:"original_unique"`
	TransformedUnique int                `json:"transformed_unique"`
	OriginalNulls     int                `json:"original_nulls"`
	TransformedNulls  int                `json:"transformed_nulls"`

	OriginalMean    *float64 `json:"original_mean,omitempty"`
	TransformedMean *float64 `json:"transformed_mean,omitempty"`
	OriginalStd     *float64 `json:"original_std,omitempty"`
	TransformedStd  *float64 `json:"transformed_std,omitempty"`

	OriginalMode    string `json:"original_mode,omitempty"`
	TransformedMode string `json:"transformed_mode,omitempty"`
	ValueOverlap    *int   `json:"value_overlap,omitempty"`
}

// Assessment is the privacy risk read of a score result.
type Assessment struct {
	RiskLevel             RiskLevel        `json:"overall_risk_level"`
	RiskScore             float64          `json:"risk_score"`
	RiskFactors           []string         `json:"risk_factors"`
	HighRiskColumns       []string         `json:"high_risk_columns"`
	ReidentificationRisks []string         `json:"reidentification_risks"`
	Recommendations       []string         `json:"recommendations"`
	Columns               []ColumnAnalysis `json:"column_analysis"`
}

// Assess profiles both datasets for every scored column and derives the
// risk level and recommendations from res. Either dataset may be nil, in
// which case the column analysis carries only types and distances.
func Assess(original, transformed *dataset.Dataset, res scoring.ScoreResult) Assessment {
	origStats := profileByName(original)
	transStats := profileByName(transformed)

	a := Assessment{
		RiskLevel:             RiskLow,
		RiskScore:             math.Round((100-res.GlobalScore)*100) / 100,
		RiskFactors:           []string{},
		HighRiskColumns:       []string{},
		ReidentificationRisks: []string{},
		Recommendations:       []string{},
		Columns:               make([]ColumnAnalysis, 0, len(res.Columns)),
	}

	analysis := make(map[string]ColumnAnalysis, len(res.Columns))
	for _, name := range res.Columns {
		ca := analyzeColumn(name, res.ColumnTypes[name], res.ColumnScores[name], original, transformed, origStats, transStats)
		analysis[name] = ca
		a.Columns = append(a.Columns, ca)
	}

	switch {
	case res.GlobalScore < highRiskScore:
		a.RiskLevel = RiskHigh
		a.RiskFactors = append(a.RiskFactors, "Overall anonymization score is low")
		a.Recommendations = append(a.Recommendations, "Apply stronger anonymization methods across more columns")
	case res.GlobalScore < mediumRiskScore:
		a.RiskLevel = RiskMedium
		a.RiskFactors = append(a.RiskFactors, "Overall anonymization score is moderate")
		a.Recommendations = append(a.Recommendations, "Anonymization is moderate, fine-tune the transformations for better privacy")
	}

	wellAnonymized := 0
	for _, name := range res.Columns {
		d := res.ColumnScores[name]
		if d > wellAnonymizedDistance {
			wellAnonymized++
		}
		if d >= highRiskDistance {
			continue
		}
		a.HighRiskColumns = append(a.HighRiskColumns, name)
		a.RiskFactors = append(a.RiskFactors, fmt.Sprintf("Column %q has a low anonymization distance", name))
		if rec := columnRecommendation(analysis[name]); rec != "" {
			a.Recommendations = append(a.Recommendations, rec)
		}
	}

	total := float64(len(res.Columns))
	switch {
	case float64(len(a.HighRiskColumns)) > total*highRiskColumnShare:
		a.RiskLevel = RiskHigh
	case len(a.HighRiskColumns) > 0 && a.RiskLevel == RiskLow:
		a.RiskLevel = RiskMedium
	}

	for _, ca := range a.Columns {
		if ca.Type != scoring.Categorical || ca.ValueOverlap == nil {
			continue
		}
		if float64(*ca.ValueOverlap) > float64(ca.OriginalUnique)*retainedValueShare {
			a.ReidentificationRisks = append(a.ReidentificationRisks,
				fmt.Sprintf("Column %q retains most of its original values", ca.Column))
		}
	}

	if float64(wellAnonymized) < total*coverageShare {
		a.Recommendations = append(a.Recommendations, "Apply anonymization to more columns for comprehensive privacy protection")
	}
	return a
}

func columnRecommendation(ca ColumnAnalysis) string {
	switch ca.Type {
	case scoring.Categorical:
		if ca.ValueOverlap != nil && float64(*ca.ValueOverlap) > float64(ca.OriginalUnique)*randomizeValueShare {
			return fmt.Sprintf("Column %q: randomize values instead of keeping the original categories", ca.Column)
		}
	case scoring.Numerical:
		return fmt.Sprintf("Column %q: add noise or obfuscate the values", ca.Column)
	case scoring.Text:
		return fmt.Sprintf("Column %q: replace values with fake data or hashes", ca.Column)
	}
	return ""
}

func analyzeColumn(name string, colType scoring.ColumnType, distance float64,
	original, transformed *dataset.Dataset, origStats, transStats map[string]dataset.ColumnStats,
) ColumnAnalysis {
	o, oOK := origStats[name]
	t, tOK := transStats[name]
	ca := ColumnAnalysis{
		Column:            name,
		Type:              colType,
		Distance:          distance,
		OriginalUnique:    o.DistinctCount,
		TransformedUnique: t.DistinctCount,
		OriginalNulls:     o.NullCount,
		TransformedNulls:  t.NullCount,
	}

	switch colType {
	case scoring.Numerical:
		ca.OriginalMean, ca.OriginalStd = moments(o)
		ca.TransformedMean, ca.TransformedStd = moments(t)
	case scoring.Categorical:
		ca.OriginalMode = o.Mode
		ca.TransformedMode = t.Mode
		if oOK && tOK {
			oCol, _ := original.Column(name)
			tCol, _ := transformed.Column(name)
			overlap := dataset.Overlap(oCol, tCol)
			ca.ValueOverlap = &overlap
		}
	}
	return ca
}

// moments returns the mean and sample standard deviation of a numeric
// column. The deviation needs at least two values.
func moments(s dataset.ColumnStats) (mean, std *float64) {
	if !s.Numeric {
		return nil, nil
	}
	m := s.Mean
	mean = &m
	if s.Count-s.NullCount > 1 {
		sd := s.Std
		std = &sd
	}
	return mean, std
}

func profileByName(ds *dataset.Dataset) map[string]dataset.ColumnStats {
	if ds == nil {
		return nil
	}
	stats := dataset.Profile(ds)
	out := make(map[string]dataset.ColumnStats, len(stats))
	for _, s := range stats {
		out[s.Name] = s
	}
	return out
}
