package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peekknuf/anonscore/internal/config"
	"github.com/peekknuf/anonscore/internal/logger"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	appLog *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "anonscore",
	Short: "Anonymization scoring CLI",
	Long: `Measure how strongly a transformed CSV file diverges from its original.
Every column is compared with metrics suited to its type and the column
distances are combined into a single 1-100 anonymization score.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appLog = logger.New(verbose)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"YAML config file with column weights and loader settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging and per-column details")
}
