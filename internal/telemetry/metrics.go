package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/peekknuf/anonscore/internal/scoring"
)

const namespace = "anonscore"

// Metrics collects scoring metrics on a private registry and implements
// scoring.Observer.
type Metrics struct {
	registry *prometheus.Registry

	ColumnsScored      *prometheus.CounterVec
	DegenerateMetrics  *prometheus.CounterVec
	TypeDrift          prometheus.Counter
	ColumnDuration     *prometheus.HistogramVec
	DatasetsScored     prometheus.Counter
	DatasetDuration    prometheus.Histogram
	LastGlobalScore    prometheus.Gauge
	LastGlobalDistance prometheus.Gauge
	NoSignalResults    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ColumnsScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "columns_scored_total",
				Help:      "Total number of columns scored",
			},
			[]string{"type"},
		),
		DegenerateMetrics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degenerate_metrics_total",
				Help:      "Total number of metric results replaced by the fallback policy",
			},
			[]string{"metric", "reason"},
		),
		TypeDrift: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "column_type_drift_total",
				Help:      "Total number of columns whose type changed after transformation",
			},
		),
		ColumnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "column_duration_seconds",
				Help:      "Duration of scoring a single column",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
			},
			[]string{"type"},
		),
		DatasetsScored: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datasets_scored_total",
				Help:      "Total number of dataset pairs scored",
			},
		),
		DatasetDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_duration_seconds",
				Help:      "Duration of scoring a dataset pair",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
		),
		LastGlobalScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_global_score",
				Help:      "Global anonymization score of the most recent dataset pair",
			},
		),
		LastGlobalDistance: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_global_distance",
				Help:      "Global distance of the most recent dataset pair",
			},
		),
		NoSignalResults: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "no_signal_results_total",
				Help:      "Total number of results where no column carried weight",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ColumnScored(cs scoring.ColumnScore, elapsed time.Duration) {
	colType := string(cs.Type)
	m.ColumnsScored.WithLabelValues(colType).Inc()
	m.ColumnDuration.WithLabelValues(colType).Observe(elapsed.Seconds())
	if cs.TypeDrift {
		m.TypeDrift.Inc()
	}
	for _, c := range cs.Components {
		if reason := c.Degenerate(); reason != "" {
			m.DegenerateMetrics.WithLabelValues(string(c.Metric), string(reason)).Inc()
		}
	}
}

func (m *Metrics) DatasetScored(res scoring.ScoreResult, elapsed time.Duration) {
	m.DatasetsScored.Inc()
	m.DatasetDuration.Observe(elapsed.Seconds())
	m.LastGlobalScore.Set(res.GlobalScore)
	m.LastGlobalDistance.Set(res.GlobalDistance)
	if res.NoSignal {
		m.NoSignalResults.Inc()
	}
}

// WriteTextfile writes the collected metrics in the node_exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

var _ scoring.Observer = (*Metrics)(nil)
