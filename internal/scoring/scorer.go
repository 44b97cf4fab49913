// Package scoring measures how far a transformed dataset has drifted from its
// original: it classifies columns, scores each one with the metrics from the
// distance package, and aggregates the column distances into a 1-100 score.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/distance"
)

var (
	// ErrShapeMismatch is returned when the two datasets differ in row or
	// column count.
	ErrShapeMismatch = errors.New("original and transformed datasets must have the same shape")
	ErrNilDataset    = errors.New("nil dataset")
)

// Observer receives scoring events. ColumnScored is called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	ColumnScored(cs ColumnScore, elapsed time.Duration)
	DatasetScored(res ScoreResult, elapsed time.Duration)
}

// Scorer holds scoring settings. It keeps no state between calls and is safe
// for concurrent use.
type Scorer struct {
	weights    map[string]float64
	workers    int
	textSample int
	policy     Policy
	log        *slog.Logger
	observer   Observer
}

type Option func(*Scorer)

// WithWeights sets per-column weights. Columns not listed weigh 1.
func WithWeights(w map[string]float64) Option {
	return func(s *Scorer) {
		s.weights = maps.Clone(w)
	}
}

// WithWorkers bounds how many columns are scored at once. n <= 0 uses the
// number of CPUs.
func WithWorkers(n int) Option {
	return func(s *Scorer) {
		s.workers = n
	}
}

// WithTextSample sets how many aligned pairs the sequence similarity compares.
func WithTextSample(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.textSample = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(s *Scorer) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scorer) {
		s.observer = o
	}
}

func New(opts ...Option) *Scorer {
	s := &Scorer{
		textSample: distance.DefaultTextSample,
		policy:     DefaultPolicy,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	return s
}

// Weights returns a copy of the configured column weights.
func (s *Scorer) Weights() map[string]float64 {
	return maps.Clone(s.weights)
}

// Score compares every column of original with the same-named column of
// transformed. Rows pair by position. The only error besides cancellation is
// a shape mismatch; degenerate columns still produce a complete result.
func (s *Scorer) Score(ctx context.Context, original, transformed *dataset.Dataset) (ScoreResult, error) {
	if original == nil || transformed == nil {
		return ScoreResult{}, ErrNilDataset
	}
	oRows, oCols := original.Shape()
	tRows, tCols := transformed.Shape()
	if oRows != tRows || oCols != tCols {
		return ScoreResult{}, fmt.Errorf("%w: original is %dx%d, transformed is %dx%d",
			ErrShapeMismatch, oRows, oCols, tRows, tCols)
	}

	start := time.Now()
	names := original.Columns()
	slots := make([]*ColumnScore, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		orig, _ := original.Column(name)
		trans, ok := transformed.Column(name)
		if !ok {
			s.log.Warn("column missing from transformed dataset, skipping", "column", name)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			colStart := time.Now()
			cs := s.ScoreColumn(name, orig, trans)
			slots[i] = &cs
			if s.observer != nil {
				s.observer.ColumnScored(cs, time.Since(colStart))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScoreResult{}, fmt.Errorf("scoring columns: %w", err)
	}

	columns := make([]ColumnScore, 0, len(slots))
	for _, cs := range slots {
		if cs != nil {
			columns = append(columns, *cs)
		}
	}

	res := Aggregate(columns, s.weights)
	if res.NoSignal {
		s.log.Warn("no weighted columns were scored; global distance carries no signal",
			"columns", res.TotalColumns)
	}
	s.log.Info("scored dataset",
		"original", original.Name,
		"transformed", transformed.Name,
		"score", res.GlobalScore,
		"columns", res.TotalColumns,
		"elapsed", time.Since(start))
	if s.observer != nil {
		s.observer.DatasetScored(res, time.Since(start))
	}
	return res, nil
}

// QuickScore scores a dataset pair with default settings and the given
// weights.
func QuickScore(ctx context.Context, original, transformed *dataset.Dataset, weights map[string]float64) (ScoreResult, error) {
	return New(WithWeights(weights)).Score(ctx, original, transformed)
}
