// Package backtest replays stored bars through a strategy, a schedule and
// a paper broker.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/execution"
	"regime-allocator/internal/execution/paper"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/observability"
	"regime-allocator/internal/replay"
	"regime-allocator/internal/schedule"
	"regime-allocator/internal/storage"
)

// Broker is the execution collaborator the engine trades through.
type Broker interface {
	execution.Sink
	execution.PortfolioReader
	Mark(bar *domain.PriceBar)
	Equity() float64
}

// EquityPoint is the end-of-day portfolio value.
type EquityPoint struct {
	Day    time.Time
	Equity float64
}

// Results holds backtest output.
type Results struct {
	RunID          string
	StrategyID     string
	Variant        domain.Variant
	EventCount     int
	HistoryCount   int // events before the live window, used only for warmup
	RejectedCount  int
	TriggerCount   int
	TradeCount     int // triggers that emitted instructions
	Decisions      []*domain.DecisionRecord
	Equity         []EquityPoint
	FinalSelection []string
}

// EngineConfig holds the engine collaborators.
type EngineConfig struct {
	Broker  Broker                      // required
	Sink    execution.Sink              // optional, receives every order after the broker
	Records storage.DecisionRecordStore // optional
	Logger  zerolog.Logger

	// LiveFrom is the first millisecond whose triggers are evaluated and
	// whose days enter the equity curve. Earlier bars only warm up the
	// strategy and mark the broker. Zero makes every bar live.
	LiveFrom int64
}

// Engine orchestrates strategy execution during backtest.
// Implements replay.ReplayEngine.
type Engine struct {
	strategy Strategy
	schedule *schedule.Schedule
	broker   Broker
	sink     execution.Sink
	records  storage.DecisionRecordStore
	liveFrom int64
	log      zerolog.Logger
	results  *Results
}

// NewEngine creates a new backtest engine.
func NewEngine(strategy Strategy, cfg EngineConfig) *Engine {
	return &Engine{
		strategy: strategy,
		schedule: schedule.New(strategy.Schedule()),
		broker:   cfg.Broker,
		sink:     cfg.Sink,
		records:  cfg.Records,
		liveFrom: cfg.LiveFrom,
		log:      cfg.Logger.With().Str("strategy", strategy.ID()).Logger(),
		results: &Results{
			StrategyID: strategy.ID(),
			Variant:    strategy.Variant(),
			Decisions:  make([]*domain.DecisionRecord, 0),
		},
	}
}

// OnEvent processes one bar. A schedule trigger opening the bar's day is
// evaluated before the bar is marked or ingested, so decisions only see
// closes of previous days. Bars before LiveFrom never trigger.
// Implements replay.ReplayEngine.
func (e *Engine) OnEvent(ctx context.Context, event *replay.Event) error {
	bar := event.Bar
	e.results.EventCount++

	live := bar.TimestampMs >= e.liveFrom
	day, fire := e.schedule.Observe(bar.Time())
	if fire && live {
		if err := e.trigger(ctx, bar.Time()); err != nil {
			return err
		}
	}

	e.broker.Mark(bar)
	if reason := e.strategy.OnBar(bar); reason != instrument.RejectNone {
		e.results.RejectedCount++
		observability.RecordBarRejected(string(reason))
		e.log.Debug().
			Str("symbol", bar.Symbol).
			Int64("timestamp_ms", bar.TimestampMs).
			Str("reason", string(reason)).
			Msg("bar rejected")
	} else {
		observability.RecordBarIngested(bar.Symbol)
	}

	if !live {
		e.results.HistoryCount++
		return nil
	}
	e.markEquity(day)
	return nil
}

func (e *Engine) trigger(ctx context.Context, at time.Time) error {
	e.results.TriggerCount++

	d, err := e.strategy.OnTrigger(ctx, at, e.broker.Snapshot())
	if err != nil {
		return fmt.Errorf("trigger at %s: %w", at.Format(time.DateOnly), err)
	}

	rec := d.Record(e.strategy.ID(), e.strategy.Variant(), at.UnixMilli())
	e.results.Decisions = append(e.results.Decisions, rec)
	if !d.Skipped() {
		e.results.FinalSelection = append([]string(nil), rec.Selection...)
	}

	e.observe(rec)

	if e.records != nil {
		if err := e.records.Insert(ctx, rec); err != nil {
			return fmt.Errorf("record decision %s: %w", rec.DecisionID, err)
		}
	}

	if !rec.Traded() {
		return nil
	}
	e.results.TradeCount++

	order := execution.NewOrder(rec)
	if err := e.broker.Submit(ctx, order); err != nil {
		if errors.Is(err, paper.ErrUnknownInstruction) || !errors.Is(err, paper.ErrNoPrice) {
			return fmt.Errorf("submit order %s: %w", rec.DecisionID, err)
		}
		observability.RecordExecutionError("paper")
		e.log.Warn().Err(err).Str("decision_id", rec.DecisionID).Msg("instructions skipped")
	}
	if e.sink != nil {
		if err := e.sink.Submit(ctx, order); err != nil {
			return fmt.Errorf("dispatch order %s: %w", rec.DecisionID, err)
		}
	}
	return nil
}

func (e *Engine) observe(rec *domain.DecisionRecord) {
	observability.RecordRebalance(string(rec.Variant), string(rec.Reason))
	for _, in := range rec.Instructions {
		observability.RecordInstruction(string(in.Kind))
	}
	if rec.Reason != domain.ReasonSkippedWarmup && rec.Reason != domain.ReasonSkippedNotReady {
		switch rec.Variant {
		case domain.VariantVolTarget:
			observability.UpdateTargetLeverage(rec.StrategyID, rec.Metrics.TargetWeight)
		case domain.VariantSeasonalRotation:
			observability.UpdateSelectionSize(rec.StrategyID, len(rec.Selection))
		}
		if rec.Metrics.MarketFallback {
			observability.RecordMarketFallback(rec.StrategyID)
		}
	}

	e.log.Info().
		Str("decision_id", rec.DecisionID).
		Time("at", time.UnixMilli(rec.TimestampMs).UTC()).
		Str("reason", string(rec.Reason)).
		Float64("momentum", rec.Metrics.Momentum).
		Float64("realized_vol", rec.Metrics.RealizedVol).
		Float64("current_weight", rec.Metrics.CurrentWeight).
		Float64("target_weight", rec.Metrics.TargetWeight).
		Bool("market_bullish", rec.Metrics.MarketBullish).
		Strs("selection", rec.Selection).
		Int("instructions", len(rec.Instructions)).
		Msg("rebalance decision")
}

func (e *Engine) markEquity(day time.Time) {
	eq := e.broker.Equity()
	n := len(e.results.Equity)
	if n > 0 && e.results.Equity[n-1].Day.Equal(day) {
		e.results.Equity[n-1].Equity = eq
		return
	}
	e.results.Equity = append(e.results.Equity, EquityPoint{Day: day, Equity: eq})
}

// Results returns the backtest results.
func (e *Engine) Results() *Results {
	return e.results
}

// Ensure Engine implements replay.ReplayEngine
var _ replay.ReplayEngine = (*Engine)(nil)
