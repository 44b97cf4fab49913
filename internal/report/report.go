// Package report renders score results as JSON, CSV or a plain-text summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/peekknuf/anonscore/internal/scoring"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or csv)", s)
	}
}

// Envelope wraps a ScoreResult with run metadata. The result fields are
// flattened into the top-level JSON object.
type Envelope struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Original    string    `json:"original"`
	Transformed string    `json:"transformed"`
	Rows        int       `json:"rows"`

	scoring.ScoreResult

	Breakdown []ColumnDetail `json:"details"`

	Assessment *Assessment `json:"risk_assessment,omitempty"`
}

// ColumnDetail is the per-column breakdown written next to the summary.
type ColumnDetail struct {
	Column          string             `json:"column"`
	Type            scoring.ColumnType `json:"type"`
	TransformedType scoring.ColumnType `json:"transformed_type"`
	TypeDrift       bool               `json:"type_drift"`
	Distance        float64            `json:"distance"`
	Metrics         map[string]float64 `json:"metrics"`
	Degenerate      []string           `json:"degenerate,omitempty"`
}

// Builder stamps envelopes with a run id and the time from its clock.
type Builder struct {
	clock clockwork.Clock
	newID func() string
}

type BuilderOption func(*Builder)

func WithClock(c clockwork.Clock) BuilderOption {
	return func(b *Builder) {
		b.clock = c
	}
}

func WithIDGenerator(f func() string) BuilderOption {
	return func(b *Builder) {
		b.newID = f
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		clock: clockwork.NewRealClock(),
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Build(original, transformed string, rows int, res scoring.ScoreResult) Envelope {
	env := Envelope{
		RunID:       b.newID(),
		GeneratedAt: b.clock.Now().UTC(),
		Original:    original,
		Transformed: transformed,
		Rows:        rows,
		ScoreResult: res,
		Breakdown:   make([]ColumnDetail, 0, len(res.Details)),
	}
	for _, cs := range res.Details {
		d := ColumnDetail{
			Column:          cs.Name,
			Type:            cs.Type,
			TransformedType: cs.TransformedType,
			TypeDrift:       cs.TypeDrift,
			Distance:        res.ColumnScores[cs.Name],
			Metrics:         make(map[string]float64, len(cs.Components)),
			Degenerate:      cs.DegenerateReasons(),
		}
		for _, c := range cs.Components {
			d.Metrics[string(c.Metric)] = c.Value
		}
		env.Breakdown = append(env.Breakdown, d)
	}
	return env
}

// Write renders env in the given format.
func Write(w io.Writer, format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, env)
	case FormatCSV:
		return WriteCSV(w, env)
	case FormatText, "":
		return WriteText(w, env)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
