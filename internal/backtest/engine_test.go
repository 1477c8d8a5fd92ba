package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/execution"
	"regime-allocator/internal/execution/paper"
	"regime-allocator/internal/rebalance"
	"regime-allocator/internal/replay"
	"regime-allocator/internal/storage/memory"
)

// Monday.
var day0 = time.Date(2024, time.January, 1, 21, 0, 0, 0, time.UTC)

func dailyBars(symbol string, n int) []*domain.PriceBar {
	bars := make([]*domain.PriceBar, n)
	for i := range bars {
		bars[i] = &domain.PriceBar{
			Symbol:      symbol,
			TimestampMs: day0.AddDate(0, 0, i).UnixMilli(),
			Close:       100 + float64(i),
		}
	}
	return bars
}

func feed(t *testing.T, e *Engine, bars []*domain.PriceBar) {
	t.Helper()
	for i, b := range bars {
		require.NoError(t, e.OnEvent(context.Background(), &replay.Event{Sequence: i, Bar: b}))
	}
}

type recordingSink struct {
	orders []*execution.Order
	err    error
}

func (s *recordingSink) Submit(_ context.Context, o *execution.Order) error {
	s.orders = append(s.orders, o)
	return s.err
}

func TestEngine_TriggersBeforeIngest(t *testing.T) {
	strategy := newStubStrategy(setWeight("X", 1.0))
	broker := paper.NewBroker(100000, 0)
	records := memory.NewDecisionRecordStore()
	sink := &recordingSink{}

	e := NewEngine(strategy, EngineConfig{Broker: broker, Sink: sink, Records: records})
	feed(t, e, dailyBars("X", 10))

	assert.Equal(t, []string{
		"bar 2024-01-01", "bar 2024-01-02", "bar 2024-01-03", "bar 2024-01-04",
		"bar 2024-01-05", "bar 2024-01-06", "bar 2024-01-07",
		"trigger 2024-01-08",
		"bar 2024-01-08", "bar 2024-01-09", "bar 2024-01-10",
	}, strategy.calls)

	// Filled at the previous close.
	assert.InDelta(t, 100000.0/106, broker.Position("X"), 1e-9)
	assert.InDelta(t, 100000.0/106*109, broker.Equity(), 1e-6)

	res := e.Results()
	assert.Equal(t, 10, res.EventCount)
	assert.Equal(t, 1, res.TriggerCount)
	assert.Equal(t, 1, res.TradeCount)
	require.Len(t, res.Decisions, 1)
	assert.Equal(t, day0.AddDate(0, 0, 7).UnixMilli(), res.Decisions[0].TimestampMs)
	assert.Equal(t, []string{"X"}, res.FinalSelection)

	stored, err := records.GetByID(context.Background(), res.Decisions[0].DecisionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonStrongTrend, stored.Reason)

	require.Len(t, sink.orders, 1)
	assert.Equal(t, res.Decisions[0].DecisionID, sink.orders[0].DecisionID)
}

func TestEngine_EquityCurveIsEndOfDay(t *testing.T) {
	strategy := newStubStrategy(setWeight("X", 1.0))
	broker := paper.NewBroker(1000, 0)
	e := NewEngine(strategy, EngineConfig{Broker: broker})

	bars := dailyBars("X", 3)
	feed(t, e, bars)

	curve := e.Results().Equity
	require.Len(t, curve, 3)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), curve[0].Day)
	for _, p := range curve {
		assert.Equal(t, 1000.0, p.Equity)
	}
}

func TestEngine_SkippedDecisionIsRecordedNotTraded(t *testing.T) {
	strategy := newStubStrategy(skipWarmup)
	broker := paper.NewBroker(100000, 0)
	sink := &recordingSink{}
	e := NewEngine(strategy, EngineConfig{Broker: broker, Sink: sink})

	feed(t, e, dailyBars("X", 15))

	res := e.Results()
	assert.Equal(t, 2, res.TriggerCount)
	assert.Equal(t, 0, res.TradeCount)
	require.Len(t, res.Decisions, 2)
	assert.Equal(t, domain.ReasonSkippedWarmup, res.Decisions[0].Reason)
	assert.Empty(t, res.FinalSelection)
	assert.Empty(t, sink.orders)
	assert.Empty(t, broker.Fills())
}

func TestEngine_RejectedBarsAreCounted(t *testing.T) {
	strategy := newStubStrategy(skipWarmup)
	e := NewEngine(strategy, EngineConfig{Broker: paper.NewBroker(1000, 0)})

	bad := &domain.PriceBar{Symbol: "X", TimestampMs: day0.UnixMilli(), Close: 0}
	require.NoError(t, e.OnEvent(context.Background(), &replay.Event{Bar: bad}))

	assert.Equal(t, 1, e.Results().RejectedCount)
	assert.Empty(t, strategy.calls)
}

func TestEngine_MissingPriceDoesNotAbort(t *testing.T) {
	strategy := newStubStrategy(setWeight("Z", 0.5))
	broker := paper.NewBroker(100000, 0)
	e := NewEngine(strategy, EngineConfig{Broker: broker})

	feed(t, e, dailyBars("X", 10))

	assert.Equal(t, 1, e.Results().TradeCount)
	assert.Zero(t, broker.Position("Z"))
	assert.Equal(t, 100000.0, broker.Equity())
}

func TestEngine_UnknownInstructionIsFatalEvenWithMissingPrice(t *testing.T) {
	strategy := newStubStrategy(func(time.Time) (rebalance.Decision, error) {
		return rebalance.Decision{
			RebalanceDecision: domain.RebalanceDecision{Reason: domain.ReasonStrongTrend},
			Instructions: []domain.Instruction{
				{Kind: "rebalance", Symbol: "X", Weight: 1},
				domain.SetWeight("Z", 0.5),
			},
		}, nil
	})
	e := NewEngine(strategy, EngineConfig{Broker: paper.NewBroker(1000, 0)})

	var err error
	for i, b := range dailyBars("X", 10) {
		if err = e.OnEvent(context.Background(), &replay.Event{Sequence: i, Bar: b}); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, paper.ErrUnknownInstruction)
}

func TestEngine_PropagatesErrors(t *testing.T) {
	errStrategy := errors.New("strategy failed")
	strategy := newStubStrategy(func(time.Time) (rebalance.Decision, error) {
		return rebalance.Decision{}, errStrategy
	})
	e := NewEngine(strategy, EngineConfig{Broker: paper.NewBroker(1000, 0)})

	var err error
	for i, b := range dailyBars("X", 10) {
		if err = e.OnEvent(context.Background(), &replay.Event{Sequence: i, Bar: b}); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, errStrategy)

	errSink := errors.New("sink failed")
	sink := &recordingSink{err: errSink}
	e = NewEngine(newStubStrategy(setWeight("X", 1)), EngineConfig{Broker: paper.NewBroker(1000, 0), Sink: sink})
	for i, b := range dailyBars("X", 10) {
		if err = e.OnEvent(context.Background(), &replay.Event{Sequence: i, Bar: b}); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, errSink)
}

func TestEngine_DuplicateDecisionRecordFails(t *testing.T) {
	records := memory.NewDecisionRecordStore()
	strategy := newStubStrategy(skipWarmup)
	bars := dailyBars("X", 10)

	e := NewEngine(strategy, EngineConfig{Broker: paper.NewBroker(1000, 0), Records: records})
	feed(t, e, bars)

	// A second run with the same strategy ID collides on the deterministic ID.
	e = NewEngine(newStubStrategy(skipWarmup), EngineConfig{Broker: paper.NewBroker(1000, 0), Records: records})
	var err error
	for i, b := range bars {
		if err = e.OnEvent(context.Background(), &replay.Event{Sequence: i, Bar: b}); err != nil {
			break
		}
	}
	require.Error(t, err)
}
