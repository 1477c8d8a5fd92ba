package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"regime-allocator/internal/config"
	"regime-allocator/internal/metrics"
	"regime-allocator/internal/reporting"
	pgstore "regime-allocator/internal/storage/postgres"
)

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	strategyID, _ := cmd.Flags().GetString("strategy")
	if strategyID == "" {
		strategyID = cfg.Strategy.ID
	}
	outDir, _ := cmd.Flags().GetString("out")

	if cfg.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: storage.postgres_dsn is required", config.ErrInvalidConfig)
	}
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	report, err := reporting.NewGenerator().GenerateFromStore(ctx, pgstore.NewDecisionRecordStore(pool), strategyID)
	if errors.Is(err, metrics.ErrNoDecisions) {
		return fmt.Errorf("no decision records for strategy %q", strategyID)
	}
	if err != nil {
		return err
	}

	mdPath, csvPath, err := writeReport(outDir, report)
	if err != nil {
		return err
	}
	log.Info().
		Str("strategy", strategyID).
		Int("triggers", report.Decisions.Triggers).
		Str("report", mdPath).
		Str("decisions", csvPath).
		Msg("reports written")
	return nil
}
