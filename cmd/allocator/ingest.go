package main

import (
	"github.com/spf13/cobra"

	"regime-allocator/internal/config"
)

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	paths, _ := cmd.Flags().GetStringSlice("csv")
	fromDay, _ := cmd.Flags().GetString("from")
	toDay, _ := cmd.Flags().GetString("to")
	window := config.BacktestConfig{From: fromDay, To: toDay}
	from, to := window.Range()

	stores, cleanup, err := createStores(ctx, cfg.Storage, false)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := ingestCSV(ctx, stores.bars, paths, from, to, log)
	if err != nil {
		return err
	}
	log.Info().
		Int("files", len(paths)).
		Int("ingested", res.Ingested).
		Int("rejected", res.Rejected).
		Msg("ingestion complete")
	return nil
}
