package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/peekknuf/anonscore/internal/cache"
	"github.com/peekknuf/anonscore/internal/connectors"
	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/scoring"
	"github.com/peekknuf/anonscore/internal/telemetry"
)

var (
	dirPath      string
	suffix       string
	recursive    bool
	minSize      int64
	maxSize      int64
	scanMetrics  string
	scanCacheMax int

	modifiedAfter  string
	modifiedBefore string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score every original/transformed pair in a directory",
	Long: `Scan a directory for CSV files and score each file against its
transformed counterpart, matched by name: data.csv pairs with
data_anonymized.csv unless another --suffix is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("suffix") && cfg.Suffix != "" {
			suffix = cfg.Suffix
		}

		options := connectors.DiscoveryOptions{
			Recursive: recursive,
			MinSize:   minSize,
			MaxSize:   maxSize,
		}
		if modifiedAfter != "" {
			t, err := connectors.ParseTime(modifiedAfter, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --modified-after: %w", err)
			}
			options.ModifiedAfter = t
		}
		if modifiedBefore != "" {
			t, err := connectors.ParseTime(modifiedBefore, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --modified-before: %w", err)
			}
			options.ModifiedBefore = t
		}
		if !options.ModifiedAfter.IsZero() && !options.ModifiedBefore.IsZero() &&
			options.ModifiedBefore.Before(options.ModifiedAfter) {
			return fmt.Errorf("--modified-before %s is earlier than --modified-after %s", modifiedBefore, modifiedAfter)
		}
		files, err := connectors.DiscoverFiles(dirPath, "csv", options)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		pairs, unpaired := connectors.PairFiles(files, suffix)
		for _, f := range unpaired {
			appLog.Debug("file has no counterpart, skipping", "path", f.Path)
		}
		if len(pairs) == 0 {
			return fmt.Errorf("no file pairs with suffix %q found in %s", suffix, dirPath)
		}

		opts := append(cfg.ScorerOptions(), scoring.WithLogger(appLog))
		var metrics *telemetry.Metrics
		if scanMetrics != "" {
			metrics = telemetry.New()
			opts = append(opts, scoring.WithObserver(metrics))
		}
		memo := cache.New(scoring.New(opts...), scanCacheMax)

		bar := progressbar.NewOptions(len(pairs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan][reset] Scoring pairs..."),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)

		out := cmd.OutOrStdout()
		failed := 0
		for _, pair := range pairs {
			_ = bar.Add(1)

			res, err := scorePair(cmd, memo, pair)
			if err != nil {
				if ctxErr := cmd.Context().Err(); ctxErr != nil {
					return ctxErr
				}
				appLog.Error("failed to score pair", "original", pair.Original.Path, "error", err)
				failed++
				continue
			}

			fmt.Fprintf(out, "\nPair: %s\n", pair.Name())
			fmt.Fprintf(out, "- Original: %s (%s)\n", pair.Original.Path, humanize.Bytes(uint64(pair.Original.Size)))
			fmt.Fprintf(out, "- Transformed: %s (%s)\n", pair.Transformed.Path, humanize.Bytes(uint64(pair.Transformed.Size)))
			fmt.Fprintf(out, "- Score: %.2f (%s)\n", res.GlobalScore, res.Interpretation)

			if verbose {
				for _, name := range res.Columns {
					fmt.Fprintf(out, "  %-30s %-12s %.4f\n", name, res.ColumnTypes[name], res.ColumnScores[name])
				}
			}
		}
		_ = bar.Finish()

		hits, misses := memo.Stats()
		appLog.Debug("scan finished", "pairs", len(pairs), "failed", failed, "cache_hits", hits, "cache_misses", misses)

		if metrics != nil {
			if err := metrics.WriteTextfile(scanMetrics); err != nil {
				return err
			}
		}
		if failed == len(pairs) {
			return fmt.Errorf("all %d pairs failed to score", failed)
		}
		return nil
	},
}

func scorePair(cmd *cobra.Command, memo *cache.Memo, pair connectors.Pair) (scoring.ScoreResult, error) {
	original, err := dataset.LoadCSV(pair.Original.Path, cfg.CSVOptions())
	if err != nil {
		return scoring.ScoreResult{}, err
	}
	transformed, err := dataset.LoadCSV(pair.Transformed.Path, cfg.CSVOptions())
	if err != nil {
		return scoring.ScoreResult{}, err
	}
	return memo.Score(cmd.Context(), original, transformed)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&dirPath, "dir", "d", "",
		"Directory to scan (required)")
	scanCmd.Flags().StringVarP(&suffix, "suffix", "s", "_anonymized",
		"File name suffix that marks the transformed file of a pair")
	scanCmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"Search directories recursively")
	scanCmd.Flags().Int64Var(&minSize, "min-size", 0,
		"Minimum file size in bytes")
	scanCmd.Flags().Int64Var(&maxSize, "max-size", 0,
		"Maximum file size in bytes")
	scanCmd.Flags().StringVar(&modifiedAfter, "modified-after", "",
		"Only score files modified at or after this time (RFC 3339 or YYYY-MM-DD)")
	scanCmd.Flags().StringVar(&modifiedBefore, "modified-before", "",
		"Only score files modified at or before this time (RFC 3339 or YYYY-MM-DD)")
	scanCmd.Flags().StringVar(&scanMetrics, "metrics-file", "",
		"Write Prometheus metrics in textfile format to this path")
	scanCmd.Flags().IntVar(&scanCacheMax, "cache-size", cache.DefaultMaxEntries,
		"Maximum number of results kept for pairs with identical content")

	_ = scanCmd.MarkFlagRequired("dir")
}
