package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

func WriteJSON(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

var csvHeader = []string{"column", "type", "transformed_type", "type_drift", "distance", "degenerate"}

// WriteCSV writes one row per column in dataset order.
func WriteCSV(w io.Writer, env Envelope) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, d := range env.Breakdown {
		record := []string{
			d.Column,
			string(d.Type),
			string(d.TransformedType),
			strconv.FormatBool(d.TypeDrift),
			strconv.FormatFloat(d.Distance, 'f', 4, 64),
			strings.Join(d.Degenerate, ";"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes a human-readable summary followed by a per-column table.
func WriteText(w io.Writer, env Envelope) error {
	var output strings.Builder

	output.WriteString("=== ANONYMIZATION SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Original:        %s\n", env.Original))
	output.WriteString(fmt.Sprintf("Transformed:     %s\n", env.Transformed))
	output.WriteString(fmt.Sprintf("Rows compared:   %s\n", humanize.Comma(int64(env.Rows))))
	output.WriteString(fmt.Sprintf("Columns scored:  %s\n", humanize.Comma(int64(env.TotalColumns))))
	output.WriteString(fmt.Sprintf("Global score:    %.2f / 100\n", env.GlobalScore))
	output.WriteString(fmt.Sprintf("Global distance: %.4f\n", env.GlobalDistance))
	output.WriteString(fmt.Sprintf("Interpretation:  %s\n", env.Interpretation))
	if env.NoSignal {
		output.WriteString("Warning: no column carried weight, the score carries no signal\n")
	}
	output.WriteString("\n")

	output.WriteString("=== PER-COLUMN ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("%-30s %-12s %10s  %s\n", "Column", "Type", "Distance", "Notes"))
	output.WriteString(strings.Repeat("-", 80) + "\n")
	for _, d := range env.Breakdown {
		name := Truncate(d.Column, 30)

		var notes []string
		if d.TypeDrift {
			notes = append(notes, fmt.Sprintf("now %s", d.TransformedType))
		}
		if len(d.Degenerate) > 0 {
			notes = append(notes, "fallback: "+strings.Join(d.Degenerate, ", "))
		}
		output.WriteString(fmt.Sprintf("%-30s %-12s %10.4f  %s\n",
			name, d.Type, d.Distance, strings.Join(notes, "; ")))
	}

	if env.Assessment != nil {
		writeAssessment(&output, env.Assessment)
	}

	_, err := io.WriteString(w, output.String())
	return err
}

func writeAssessment(output *strings.Builder, a *Assessment) {
	output.WriteString("\n=== PRIVACY RISK ===\n")
	output.WriteString(fmt.Sprintf("Risk level:      %s\n", a.RiskLevel))
	output.WriteString(fmt.Sprintf("Risk score:      %.2f / 100\n", a.RiskScore))
	if len(a.HighRiskColumns) > 0 {
		output.WriteString(fmt.Sprintf("High-risk columns: %s\n", strings.Join(a.HighRiskColumns, ", ")))
	}
	writeList(output, "Risk factors", a.RiskFactors)
	writeList(output, "Re-identification risks", a.ReidentificationRisks)
	writeList(output, "Recommendations", a.Recommendations)

	if len(a.Columns) == 0 {
		return
	}
	output.WriteString("\n=== COLUMN PROFILE ===\n")
	output.WriteString(fmt.Sprintf("%-30s %-12s %17s %13s  %s\n", "Column", "Type", "Unique (o -> t)", "Nulls (o -> t)", "Details"))
	output.WriteString(strings.Repeat("-", 100) + "\n")
	for _, ca := range a.Columns {
		output.WriteString(fmt.Sprintf("%-30s %-12s %17s %13s  %s\n",
			Truncate(ca.Column, 30), ca.Type,
			humanize.Comma(int64(ca.OriginalUnique))+" -> "+humanize.Comma(int64(ca.TransformedUnique)),
			humanize.Comma(int64(ca.OriginalNulls))+" -> "+humanize.Comma(int64(ca.TransformedNulls)),
			columnDetails(ca)))
	}
}

func writeList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(title + ":\n")
	for _, item := range items {
		output.WriteString("  - " + item + "\n")
	}
}

func columnDetails(ca ColumnAnalysis) string {
	switch {
	case ca.OriginalMean != nil || ca.TransformedMean != nil:
		return fmt.Sprintf("mean %s -> %s, std %s -> %s",
			optionalFloat(ca.OriginalMean), optionalFloat(ca.TransformedMean),
			optionalFloat(ca.OriginalStd), optionalFloat(ca.TransformedStd))
	case ca.ValueOverlap != nil:
		return fmt.Sprintf("mode %q -> %q, %s shared values",
			ca.OriginalMode, ca.TransformedMode, humanize.Comma(int64(*ca.ValueOverlap)))
	}
	return ""
}

func optionalFloat(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return humanize.FtoaWithDigits(*f, 4)
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= 3 {
		return string([]rune(s)[:width])
	}
	return string([]rune(s)[:width-3]) + "..."
}
