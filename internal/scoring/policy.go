package scoring

import "github.com/peekknuf/anonscore/internal/distance"

// Metric names one sub-metric of a column distance.
type Metric string

const (
	MetricAssociation        Metric = "association"
	MetricSetOverlap         Metric = "set_overlap"
	MetricDistributionShift  Metric = "distribution_shift"
	MetricDistributionShape  Metric = "distribution_shape"
	MetricCentralTendency    Metric = "central_tendency"
	MetricTextOverlap        Metric = "text_overlap"
	MetricSequenceSimilarity Metric = "sequence_similarity"
)

// Policy decides the distance used in place of a degenerate metric result.
type Policy func(m Metric, reason distance.Reason) float64

// DefaultPolicy treats a degenerate association as no detectable divergence
// and every other degenerate metric as fully divergent.
func DefaultPolicy(m Metric, _ distance.Reason) float64 {
	switch m {
	case MetricAssociation, MetricSetOverlap, MetricTextOverlap:
		return 0
	}
	return 1
}
