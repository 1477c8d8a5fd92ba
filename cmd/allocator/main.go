// Command allocator runs the regime allocator: bar ingestion, schema
// migrations, backtests and decision reports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"regime-allocator/internal/config"
	"regime-allocator/internal/logger"
)

const version = "v0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "allocator",
		Short:         "Rule-based regime allocator",
		Long:          "Periodic portfolio decisions from daily closes: vol-targeted single instrument or seasonal sector rotation.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "configs/vol_target.yaml", "Path to YAML config")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level from config")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay stored bars through the configured strategy",
		Long:  "Replays daily closes in timestamp order, fires scheduled decisions, fills them on a paper broker and writes Markdown and CSV reports",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().Bool("memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	backtestCmd.Flags().StringSlice("csv", nil, "CSV files to load before the run (symbol defaults to the file name)")
	backtestCmd.Flags().String("out", "output", "Output directory for reports")
	backtestCmd.Flags().Bool("resume", false, "Start a rotation strategy from its persisted selection")
	backtestCmd.Flags().String("metrics-addr", "", "Serve /health and /metrics on this address (overrides metrics.addr)")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load daily closes from CSV files into the bar store",
		RunE:  runIngest,
	}
	ingestCmd.Flags().StringSlice("csv", nil, "CSV files to ingest (symbol defaults to the file name)")
	ingestCmd.Flags().String("from", "", "First day to ingest (YYYY-MM-DD)")
	ingestCmd.Flags().String("to", "", "Last day to ingest (YYYY-MM-DD)")
	_ = ingestCmd.MarkFlagRequired("csv")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse migrations",
		RunE:  runMigrate,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render a decision report from persisted decision records",
		RunE:  runReport,
	}
	reportCmd.Flags().String("strategy", "", "Strategy ID (defaults to strategy.id from config)")
	reportCmd.Flags().String("out", "output", "Output directory for reports")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the strategy and compare against persisted decision records",
		RunE:  runVerify,
	}

	rootCmd.AddCommand(backtestCmd, ingestCmd, migrateCmd, reportCmd, verifyCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and builds the logger it describes.
// The returned closer releases the log file, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, io.Closer, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	log, closer, err := logger.New(logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, log.With().Str("cmd", cmd.Name()).Logger(), closer, nil
}
