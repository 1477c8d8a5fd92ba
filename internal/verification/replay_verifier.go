package verification

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
	"regime-allocator/internal/replay"
	"regime-allocator/internal/storage"
)

// ErrNoStoredDecisions is returned when the strategy has no stored decision
// inside the verified window.
var ErrNoStoredDecisions = errors.New("no stored decisions")

// ReplayVerifier implements Verifier.
type ReplayVerifier struct {
	records storage.DecisionRecordStore
	runner  *backtest.Runner
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
// InitialCash and FeeRate must match the verified run because hysteresis
// depends on the paper portfolio.
type ReplayVerifierOptions struct {
	Records     storage.DecisionRecordStore
	Bars        storage.PriceBarStore
	InitialCash float64
	FeeRate     float64
	Logger      zerolog.Logger
}

// NewReplayVerifier creates a new ReplayVerifier. The replay persists
// nothing and publishes no orders.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		records: opts.Records,
		runner: backtest.NewRunner(replay.NewRunner(opts.Bars), backtest.RunnerConfig{
			InitialCash: opts.InitialCash,
			FeeRate:     opts.FeeRate,
			Logger:      opts.Logger,
		}),
	}
}

// Verify implements Verifier.
func (v *ReplayVerifier) Verify(ctx context.Context, strategy backtest.Strategy, from, to int64) (*VerificationReport, error) {
	all, err := v.records.GetByStrategy(ctx, strategy.ID())
	if err != nil {
		return nil, err
	}
	var stored []*domain.DecisionRecord
	for _, r := range all {
		if r.TimestampMs >= from && r.TimestampMs <= to {
			stored = append(stored, r)
		}
	}
	if len(stored) == 0 {
		return nil, ErrNoStoredDecisions
	}

	results, _, err := v.runner.Run(ctx, from, to, strategy)
	if err != nil {
		return nil, err
	}

	replayed := make(map[string]*domain.DecisionRecord, len(results.Decisions))
	for _, r := range results.Decisions {
		replayed[r.DecisionID] = r
	}

	report := &VerificationReport{
		StrategyID:     strategy.ID(),
		TotalDecisions: len(stored),
		Results:        make([]VerificationResult, 0, len(stored)),
	}

	seen := make(map[string]bool, len(stored))
	for _, s := range stored {
		seen[s.DecisionID] = true
		result := VerificationResult{
			DecisionID:   s.DecisionID,
			TimestampMs:  s.TimestampMs,
			StoredReason: s.Reason,
		}

		r, ok := replayed[s.DecisionID]
		if !ok {
			result.Divergences = []FieldDivergence{{Field: "DecisionID", Expected: s.DecisionID, Actual: nil}}
			report.MissingDecisions++
			report.Results = append(report.Results, result)
			continue
		}

		result.ReplayedReason = r.Reason
		result.Divergences = CompareDecisionRecords(s, r)
		result.Match = len(result.Divergences) == 0
		if result.Match {
			report.MatchedDecisions++
		} else {
			report.DivergentDecisions++
		}
		report.Results = append(report.Results, result)
	}

	for _, r := range results.Decisions {
		if !seen[r.DecisionID] {
			report.ExtraDecisions++
			report.Results = append(report.Results, VerificationResult{
				DecisionID:     r.DecisionID,
				TimestampMs:    r.TimestampMs,
				ReplayedReason: r.Reason,
				Divergences:    []FieldDivergence{{Field: "DecisionID", Expected: nil, Actual: r.DecisionID}},
			})
		}
	}

	return report, nil
}

var _ Verifier = (*ReplayVerifier)(nil)
