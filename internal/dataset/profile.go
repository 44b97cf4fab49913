package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats summarizes one column for the describe command.
type ColumnStats struct {
	Name          string
	Count         int
	NullCount     int
	DistinctCount int
	Numeric       bool
	SampleValues  []string
	// Mode is the most frequent non-missing value. Ties go to the value
	// that sorts first as text.
	Mode string

	// Set for numeric columns only.
	Min, Max  float64
	Mean, Std float64
}

// DistinctRatio is distinct values over non-missing values.
func (s ColumnStats) DistinctRatio() float64 {
	nonNull := s.Count - s.NullCount
	if nonNull == 0 {
		return 0
	}
	return float64(s.DistinctCount) / float64(nonNull)
}

// Profile computes ColumnStats for every column of ds in column order.
func Profile(ds *Dataset) []ColumnStats {
	stats := make([]ColumnStats, 0, len(ds.columns))
	for _, name := range ds.columns {
		stats = append(stats, profileColumn(name, ds.values[name]))
	}
	return stats
}

func profileColumn(name string, col []Value) ColumnStats {
	s := ColumnStats{
		Name:         name,
		Count:        len(col),
		SampleValues: make([]string, 0, 5),
	}

	counts := make(map[any]int)
	modeCount := 0
	numeric := true
	for _, v := range col {
		if IsMissing(v) {
			s.NullCount++
			continue
		}
		k := Key(v)
		counts[k]++
		if n, text := counts[k], Text(v); n > modeCount || (n == modeCount && text < s.Mode) {
			s.Mode, modeCount = text, n
		}
		if numeric {
			_, numeric = TryFloat(v)
		}
		if len(s.SampleValues) < 5 {
			s.SampleValues = append(s.SampleValues, Text(v))
		}
	}
	s.DistinctCount = len(counts)
	s.Numeric = numeric && s.NullCount < s.Count

	if s.Numeric {
		if xs, ok := Floats(col); ok && len(xs) > 0 {
			s.Min, s.Max = floats.Min(xs), floats.Max(xs)
			s.Mean = stat.Mean(xs, nil)
			if len(xs) > 1 {
				s.Std = stat.StdDev(xs, nil)
			}
		}
	}
	return s
}

// NullPercentage is the share of missing cells across the whole dataset.
func NullPercentage(stats []ColumnStats) float64 {
	totalNulls, totalCells := 0, 0
	for _, s := range stats {
		totalNulls += s.NullCount
		totalCells += s.Count
	}
	if totalCells == 0 {
		return 0
	}
	return float64(totalNulls) / float64(totalCells)
}
