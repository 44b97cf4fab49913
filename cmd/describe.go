package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/peekknuf/anonscore/internal/connectors"
	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/report"
	"github.com/peekknuf/anonscore/internal/scoring"
)

var (
	describeWorkers   int
	describeOutput    string
	describeRecursive bool
)

type DescribeResult struct {
	Path           string
	Rows           int
	Columns        []ColumnSummary
	NullPercentage float64
	ProcessingTime time.Duration
	Error          error
}

// ColumnSummary is a profiled column together with the type the scorer
// would assign it.
type ColumnSummary struct {
	dataset.ColumnStats
	Type scoring.ColumnType
}

var describeCmd = &cobra.Command{
	Use:   "describe [file or directory]",
	Short: "Show how each column of a CSV file would be scored",
	Long: `Profile CSV files and show, per column, the type the scorer assigns,
the null count and the number of distinct values.

Examples:
  anonscore describe people.csv
  anonscore describe /data/exports/ --recursive
  anonscore describe people.csv --output profile.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath := args[0]
		fileInfo, err := os.Stat(targetPath)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", targetPath, err)
		}

		startTime := time.Now()
		var results []DescribeResult
		if fileInfo.IsDir() {
			results, err = describeDirectory(targetPath)
			if err != nil {
				return err
			}
		} else {
			results = []DescribeResult{describeFile(targetPath)}
		}

		output := formatDescribe(results, time.Since(startTime))
		if describeOutput != "" {
			if err := os.WriteFile(describeOutput, []byte(output), 0644); err != nil {
				return fmt.Errorf("failed to write to output file %s: %w", describeOutput, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", describeOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().IntVar(&describeWorkers, "workers", 0,
		"Number of files described in parallel (default: CPU cores)")
	describeCmd.Flags().StringVar(&describeOutput, "output", "",
		"Output file to save results (default: stdout)")
	describeCmd.Flags().BoolVar(&describeRecursive, "recursive", false,
		"Process directories recursively")
}

func describeDirectory(dirPath string) ([]DescribeResult, error) {
	options := connectors.DiscoveryOptions{Recursive: describeRecursive}
	files, err := connectors.DiscoverFiles(dirPath, "csv", options)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	appLog.Info("describing files", "count", len(files), "dir", dirPath)

	progressBar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan][reset] Describing files..."),
		progressbar.OptionSetWidth(20),
	)

	workers := describeWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	semaphore := make(chan struct{}, workers)
	results := make([]DescribeResult, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = describeFile(file.Path)
			_ = progressBar.Add(1)
		}()
	}
	wg.Wait()
	_ = progressBar.Finish()

	return results, nil
}

func describeFile(path string) DescribeResult {
	start := time.Now()
	result := DescribeResult{Path: path}

	ds, err := dataset.LoadCSV(path, cfg.CSVOptions())
	if err != nil {
		result.Error = err
		return result
	}

	stats := dataset.Profile(ds)
	result.Rows = ds.Rows()
	result.NullPercentage = dataset.NullPercentage(stats) * 100
	for _, s := range stats {
		col, _ := ds.Column(s.Name)
		result.Columns = append(result.Columns, ColumnSummary{
			ColumnStats: s,
			Type:        scoring.Classify(col),
		})
	}
	result.ProcessingTime = time.Since(start)
	return result
}

func formatDescribe(results []DescribeResult, totalTime time.Duration) string {
	var output strings.Builder

	output.WriteString("=== COLUMN PROFILE SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Total files processed: %d\n", len(results)))
	output.WriteString(fmt.Sprintf("Total processing time: %v\n", totalTime.Round(time.Millisecond)))

	var totalRows, totalCols int
	typeCounts := make(map[scoring.ColumnType]int)
	for _, result := range results {
		if result.Error != nil {
			appLog.Error("failed to describe file", "path", result.Path, "error", result.Error)
			continue
		}
		totalRows += result.Rows
		totalCols += len(result.Columns)
		for _, col := range result.Columns {
			typeCounts[col.Type]++
		}
	}
	output.WriteString(fmt.Sprintf("Total rows: %s\n", humanize.Comma(int64(totalRows))))
	output.WriteString(fmt.Sprintf("Total columns: %d (numerical %d, categorical %d, text %d)\n",
		totalCols, typeCounts[scoring.Numerical], typeCounts[scoring.Categorical], typeCounts[scoring.Text]))
	output.WriteString("\n")

	for _, result := range results {
		if result.Error != nil {
			continue
		}
		output.WriteString(fmt.Sprintf("File: %s\n", filepath.Base(result.Path)))
		output.WriteString(fmt.Sprintf("  Rows: %s | Columns: %d | Null Rate: %.1f%% | Time: %s\n",
			humanize.Comma(int64(result.Rows)), len(result.Columns), result.NullPercentage,
			result.ProcessingTime.Round(time.Millisecond)))
		output.WriteString(fmt.Sprintf("  %-30s %-12s %10s %10s %8s  %s\n",
			"Column", "Type", "Nulls", "Distinct", "Ratio", "Sample"))
		output.WriteString("  " + strings.Repeat("-", 90) + "\n")
		for _, col := range result.Columns {
			name := report.Truncate(col.Name, 30)
			sample := strings.Join(col.SampleValues, ", ")
			if col.Numeric {
				sample = fmt.Sprintf("min %s, max %s, mean %s",
					humanize.Ftoa(col.Min), humanize.Ftoa(col.Max), humanize.FtoaWithDigits(col.Mean, 2))
			}
			output.WriteString(fmt.Sprintf("  %-30s %-12s %10s %10s %8.2f  %s\n",
				name, col.Type, humanize.Comma(int64(col.NullCount)), humanize.Comma(int64(col.DistinctCount)),
				col.DistinctRatio(), sample))
		}
		output.WriteString("\n")
	}
	return output.String()
}
