package scoring

import (
	"strings"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/distance"
)

// Component is one sub-metric behind a column distance. Value is the
// distance after the fallback policy was applied.
type Component struct {
	Metric Metric          `json:"metric"`
	Result distance.Result `json:"-"`
	Value  float64         `json:"value"`
}

// Degenerate reports the degeneracy reason, if any.
func (c Component) Degenerate() distance.Reason {
	return c.Result.Reason
}

// ColumnScore is the distance of one column and how it was obtained.
type ColumnScore struct {
	Name            string      `json:"name"`
	Type            ColumnType  `json:"type"`
	TransformedType ColumnType  `json:"transformed_type"`
	TypeDrift       bool        `json:"type_drift"`
	Distance        float64     `json:"distance"`
	Components      []Component `json:"components"`
}

// DegenerateReasons lists "metric:reason" for every degenerate component.
func (c ColumnScore) DegenerateReasons() []string {
	var out []string
	for _, comp := range c.Components {
		if comp.Result.IsDegenerate() {
			out = append(out, string(comp.Metric)+":"+string(comp.Result.Reason))
		}
	}
	return out
}

// ScoreColumn computes the distance between an original column and its
// transformed counterpart. The metric set follows the type of the original
// column only; the transformed type is recorded for diagnostics.
func (s *Scorer) ScoreColumn(name string, original, transformed []dataset.Value) ColumnScore {
	cs := ColumnScore{
		Name:            name,
		Type:            Classify(original),
		TransformedType: Classify(transformed),
	}
	cs.TypeDrift = cs.Type != cs.TransformedType && len(dataset.DropMissing(transformed)) > 0

	switch cs.Type {
	case Numerical:
		cs.Components = []Component{
			s.component(MetricDistributionShift, distance.DistributionShift(original, transformed)),
			s.component(MetricDistributionShape, distance.DistributionShape(original, transformed)),
			s.component(MetricCentralTendency, distance.CentralTendency(original, transformed)),
		}
	case Text:
		cs.Components = []Component{
			s.component(MetricTextOverlap, distance.TextOverlap(original, transformed)),
			s.component(MetricSequenceSimilarity, distance.SequenceSimilarity(original, transformed, s.textSample)),
		}
	default:
		cs.Components = []Component{
			s.component(MetricAssociation, distance.Association(original, transformed)),
			s.component(MetricSetOverlap, distance.SetOverlap(original, transformed)),
		}
	}

	var sum float64
	for _, c := range cs.Components {
		sum += c.Value
	}
	cs.Distance = clamp01(sum / float64(len(cs.Components)))

	attrs := []any{"column", name, "type", cs.Type, "distance", cs.Distance}
	if reasons := cs.DegenerateReasons(); len(reasons) > 0 {
		attrs = append(attrs, "degenerate", strings.Join(reasons, ","))
	}
	s.log.Debug("scored column", attrs...)
	if cs.TypeDrift {
		s.log.Warn("column type changed after transformation",
			"column", name, "original", cs.Type, "transformed", cs.TransformedType)
	}
	return cs
}

func (s *Scorer) component(m Metric, r distance.Result) Component {
	return Component{
		Metric: m,
		Result: r,
		Value:  clamp01(r.Or(s.policy(m, r.Reason))),
	}
}
