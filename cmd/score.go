package cmd

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/report"
	"github.com/peekknuf/anonscore/internal/scoring"
	"github.com/peekknuf/anonscore/internal/telemetry"
)

var (
	weightFlags  []string
	outputFormat string
	outputFile   string
	scoreWorkers int
	textSample   int
	metricsFile  string
)

var scoreCmd = &cobra.Command{
	Use:   "score ORIGINAL TRANSFORMED",
	Short: "Score a transformed CSV file against its original",
	Long: `Score a transformed CSV file against its original.
Rows are paired by position, so both files must have the same shape.

Examples:
  anonscore score people.csv people_anonymized.csv
  anonscore score people.csv people_anonymized.csv --weight salary=2 --weight id=0
  anonscore score people.csv people_anonymized.csv --format json --output report.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("workers") {
			cfg.Workers = scoreWorkers
		}
		if cmd.Flags().Changed("text-sample") {
			cfg.TextSampleSize = textSample
		}
		weights, err := parseWeights(weightFlags)
		if err != nil {
			return err
		}
		if len(weights) > 0 {
			merged := maps.Clone(cfg.Weights)
			if merged == nil {
				merged = make(map[string]float64, len(weights))
			}
			maps.Copy(merged, weights)
			cfg.Weights = merged
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		format, err := report.ParseFormat(outputFormat)
		if err != nil {
			return err
		}

		original, err := dataset.LoadCSV(args[0], cfg.CSVOptions())
		if err != nil {
			return fmt.Errorf("failed to load original: %w", err)
		}
		transformed, err := dataset.LoadCSV(args[1], cfg.CSVOptions())
		if err != nil {
			return fmt.Errorf("failed to load transformed: %w", err)
		}

		opts := append(cfg.ScorerOptions(), scoring.WithLogger(appLog))
		var metrics *telemetry.Metrics
		if metricsFile != "" {
			metrics = telemetry.New()
			opts = append(opts, scoring.WithObserver(metrics))
		}

		scorer := scoring.New(opts...)
		appLog.Debug("scoring datasets", "original", original.Name, "transformed", transformed.Name, "weights", scorer.Weights())

		res, err := scorer.Score(cmd.Context(), original, transformed)
		if err != nil {
			return err
		}
		env := report.NewBuilder().Build(original.Name, transformed.Name, original.Rows(), res)
		assessment := report.Assess(original, transformed, res)
		env.Assessment = &assessment

		if err := writeReport(cmd, format, env); err != nil {
			return err
		}
		if metrics != nil {
			return metrics.WriteTextfile(metricsFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringArrayVarP(&weightFlags, "weight", "w", nil,
		"Column weight as column=value (repeatable)")
	scoreCmd.Flags().StringVarP(&outputFormat, "format", "f", "text",
		"Report format (text, json, csv)")
	scoreCmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Output file to save the report (default: stdout)")
	scoreCmd.Flags().IntVar(&scoreWorkers, "workers", 0,
		"Number of columns scored in parallel (default: CPU cores)")
	scoreCmd.Flags().IntVar(&textSample, "text-sample", 100,
		"Number of aligned values compared by the text sequence metric")
	scoreCmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics in textfile format to this path")
}

// parseWeights parses column=value pairs. The last '=' separates the value so
// column names may contain '='.
func parseWeights(pairs []string) (map[string]float64, error) {
	weights := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid weight %q, want column=value", p)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(p[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		weights[p[:i]] = w
	}
	return weights, nil
}

func writeReport(cmd *cobra.Command, format report.Format, env report.Envelope) error {
	if outputFile == "" {
		return report.Write(cmd.OutOrStdout(), format, env)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outputFile, err)
	}
	if err := report.Write(f, format, env); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	appLog.Info("report saved", "path", outputFile, "format", format)
	return nil
}
