package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/replay"
	"regime-allocator/internal/reporting"
	"regime-allocator/internal/strategy"
)

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	useMemory, _ := cmd.Flags().GetBool("memory")
	csvPaths, _ := cmd.Flags().GetStringSlice("csv")
	outDir, _ := cmd.Flags().GetString("out")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	resume, _ := cmd.Flags().GetBool("resume")
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}

	stores, cleanup, err := createStores(ctx, cfg.Storage, useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	if metricsAddr != "" {
		go startHTTPServer(ctx, metricsAddr, log)
	}

	strat, err := strategy.FromConfig(cfg.Strategy, stores.selections)
	if err != nil {
		return err
	}

	// Warmup history before backtest.from is loaded too.
	from, to := cfg.Backtest.Range()
	if len(csvPaths) > 0 {
		res, err := ingestCSV(ctx, stores.bars, csvPaths, backtest.WarmupStart(from, strat.WarmupBars()), to, log)
		if err != nil {
			return err
		}
		log.Info().Int("ingested", res.Ingested).Int("rejected", res.Rejected).Msg("bars loaded")
	}
	if rot, ok := strat.(*strategy.SeasonalRotationStrategy); ok && resume {
		if err := rot.Restore(ctx); err != nil {
			return err
		}
		log.Info().Strs("selection", rot.Selection()).Msg("selection restored")
	}

	sink, closeSink, err := createSink(cfg.Execution.Kafka)
	if err != nil {
		return err
	}
	defer closeSink()

	runner := backtest.NewRunner(replay.NewRunner(stores.bars), backtest.RunnerConfig{
		InitialCash: cfg.Backtest.InitialCash,
		FeeRate:     cfg.Backtest.FeeRate,
		Sink:        sink,
		Records:     stores.records,
		Logger:      log,
	})

	results, broker, err := runner.Run(ctx, from, to, strat)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	report := reporting.NewGenerator().Generate(results, strat.Schedule().String(), broker.Snapshot(), broker.Positions())
	mdPath, csvPath, err := writeReport(outDir, report)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", results.RunID).
		Float64("total_return", report.Performance.TotalReturn).
		Float64("max_drawdown", report.Performance.MaxDrawdown).
		Str("report", mdPath).
		Str("decisions", csvPath).
		Msg("reports written")
	return nil
}

// writeReport writes the Markdown report and the decision CSV into dir.
func writeReport(dir string, r *reporting.Report) (mdPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	mdPath = filepath.Join(dir, fmt.Sprintf("REPORT_%s.md", r.StrategyID))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}

	csvPath = filepath.Join(dir, fmt.Sprintf("decisions_%s.csv", r.StrategyID))
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(r.Records)), 0o644); err != nil {
		return "", "", fmt.Errorf("write decisions: %w", err)
	}
	return mdPath, csvPath, nil
}
