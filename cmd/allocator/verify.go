package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"regime-allocator/internal/strategy"
	"regime-allocator/internal/verification"
)

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	stores, cleanup, err := createStores(ctx, cfg.Storage, false)
	if err != nil {
		return err
	}
	defer cleanup()

	// No selection store: the replay must start from an empty selection.
	strat, err := strategy.FromConfig(cfg.Strategy, nil)
	if err != nil {
		return err
	}

	v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Records:     stores.records,
		Bars:        stores.bars,
		InitialCash: cfg.Backtest.InitialCash,
		FeeRate:     cfg.Backtest.FeeRate,
		Logger:      log,
	})

	from, to := cfg.Backtest.Range()
	report, err := v.Verify(ctx, strat, from, to)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	for _, r := range report.Results {
		if r.Match {
			continue
		}
		for _, d := range r.Divergences {
			log.Warn().
				Str("decision_id", r.DecisionID).
				Int64("timestamp_ms", r.TimestampMs).
				Str("field", d.Field).
				Interface("stored", d.Expected).
				Interface("replayed", d.Actual).
				Msg("decision diverged")
		}
	}

	log.Info().
		Str("strategy", report.StrategyID).
		Int("total", report.TotalDecisions).
		Int("matched", report.MatchedDecisions).
		Int("divergent", report.DivergentDecisions).
		Int("missing", report.MissingDecisions).
		Int("extra", report.ExtraDecisions).
		Msg("verification finished")

	if !report.OK() {
		return fmt.Errorf("verification failed: %d divergent, %d missing, %d extra",
			report.DivergentDecisions, report.MissingDecisions, report.ExtraDecisions)
	}
	return nil
}
