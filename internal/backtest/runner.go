package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"regime-allocator/internal/execution"
	"regime-allocator/internal/execution/paper"
	"regime-allocator/internal/observability"
	"regime-allocator/internal/replay"
	"regime-allocator/internal/storage"
)

// RunnerConfig configures the paper broker and optional collaborators.
type RunnerConfig struct {
	InitialCash float64
	FeeRate     float64
	Sink        execution.Sink
	Records     storage.DecisionRecordStore
	Logger      zerolog.Logger
}

// Runner executes backtest with strategy hooks.
type Runner struct {
	replayRunner *replay.Runner
	cfg          RunnerConfig
}

// NewRunner creates a new backtest runner.
func NewRunner(replayRunner *replay.Runner, cfg RunnerConfig) *Runner {
	return &Runner{
		replayRunner: replayRunner,
		cfg:          cfg,
	}
}

// Run executes backtest for the strategy's symbols within time range.
// Bars from WarmupStart(from, strategy.WarmupBars()) onward are replayed so
// the strategy is warm at from; decisions, trades and the equity curve start
// at from. Each run gets a fresh paper broker and a random run ID.
func (r *Runner) Run(ctx context.Context, from, to int64, strategy Strategy) (*Results, *paper.Broker, error) {
	start := WarmupStart(from, strategy.WarmupBars())
	return r.run(ctx, strategy, from, func(engine *Engine) error {
		return r.replayRunner.Run(ctx, strategy.Symbols(), start, to, engine)
	})
}

// RunAll executes backtest over every stored bar of the strategy's symbols.
func (r *Runner) RunAll(ctx context.Context, strategy Strategy) (*Results, *paper.Broker, error) {
	return r.run(ctx, strategy, 0, func(engine *Engine) error {
		return r.replayRunner.RunAll(ctx, strategy.Symbols(), engine)
	})
}

// WarmupStart returns the first millisecond to replay so that about
// warmupBars trading days precede from. Weekends and a month of holidays
// are allowed for.
func WarmupStart(from int64, warmupBars int) int64 {
	if warmupBars <= 0 {
		return from
	}
	days := warmupBars*7/5 + 30
	return from - (time.Duration(days) * 24 * time.Hour).Milliseconds()
}

func (r *Runner) run(ctx context.Context, strategy Strategy, liveFrom int64, replayFn func(*Engine) error) (*Results, *paper.Broker, error) {
	runID := uuid.NewString()
	log := r.cfg.Logger.With().Str("run_id", runID).Logger()
	broker := paper.NewBroker(r.cfg.InitialCash, r.cfg.FeeRate)

	engine := NewEngine(strategy, EngineConfig{
		Broker:   broker,
		Sink:     r.cfg.Sink,
		Records:  r.cfg.Records,
		Logger:   log,
		LiveFrom: liveFrom,
	})
	engine.results.RunID = runID

	start := time.Now()
	log.Info().
		Str("strategy", strategy.ID()).
		Str("variant", string(strategy.Variant())).
		Str("schedule", strategy.Schedule().String()).
		Strs("symbols", strategy.Symbols()).
		Msg("backtest started")

	if err := replayFn(engine); err != nil {
		observability.RecordBacktestRun(strategy.ID(), "error", time.Since(start))
		log.Error().Err(err).Msg("backtest failed")
		return nil, nil, err
	}

	results := engine.Results()
	observability.RecordBacktestRun(strategy.ID(), "ok", time.Since(start))
	log.Info().
		Int("events", results.EventCount).
		Int("history", results.HistoryCount).
		Int("rejected", results.RejectedCount).
		Int("triggers", results.TriggerCount).
		Int("trades", results.TradeCount).
		Float64("equity", broker.Equity()).
		Dur("elapsed", time.Since(start)).
		Msg("backtest finished")

	return results, broker, nil
}
