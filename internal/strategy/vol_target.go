package strategy

import (
	"context"
	"fmt"
	"time"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
	"regime-allocator/internal/indicator"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/rebalance"
	"regime-allocator/internal/regime"
	"regime-allocator/internal/schedule"
	"regime-allocator/internal/sizing"
)

// VolTargetParams configures VolTargetStrategy.
type VolTargetParams struct {
	ID                 string
	Symbol             string
	MomentumLookback   int
	VolWindow          int
	ShortSMA           int
	LongSMA            int
	OscillatorPeriod   int
	RebalanceThreshold float64
	Sizing             sizing.Params
	WarmupBars         int
	Schedule           schedule.Rule
}

// DefaultVolTargetParams returns the MSFT configuration: 252-day momentum,
// SMA 50/200, RSI 14 and a weekly Monday rebalance.
func DefaultVolTargetParams() VolTargetParams {
	return VolTargetParams{
		ID:                 "vol-target-msft",
		Symbol:             "MSFT",
		MomentumLookback:   252,
		VolWindow:          20,
		ShortSMA:           50,
		LongSMA:            200,
		OscillatorPeriod:   14,
		RebalanceThreshold: rebalance.DefaultRebalanceThreshold,
		Sizing:             sizing.DefaultParams(),
		WarmupBars:         257,
		Schedule:           schedule.Rule{Frequency: schedule.Weekly, Weekday: time.Monday},
	}
}

func (p VolTargetParams) validate() error {
	switch {
	case p.ID == "" || p.Symbol == "":
		return fmt.Errorf("%w: id and symbol are required", ErrInvalidParams)
	case p.MomentumLookback <= 0 || p.OscillatorPeriod <= 0:
		return fmt.Errorf("%w: lookbacks must be positive", ErrInvalidParams)
	case p.VolWindow < 2:
		return fmt.Errorf("%w: vol window must be at least 2", ErrInvalidParams)
	case p.ShortSMA <= 0 || p.ShortSMA >= p.LongSMA:
		return fmt.Errorf("%w: short SMA must be positive and below long SMA", ErrInvalidParams)
	case p.RebalanceThreshold < 0:
		return fmt.Errorf("%w: negative rebalance threshold", ErrInvalidParams)
	}
	return nil
}

// VolTargetStrategy holds one instrument at a volatility-targeted leverage.
type VolTargetStrategy struct {
	params VolTargetParams
	store  *instrument.Store
	policy *rebalance.VolTarget
	warmup warmup
}

// NewVolTargetStrategy creates the strategy and its indicator store.
// The price window holds lookback+1 closes and the return window keeps a
// few returns beyond the volatility window.
func NewVolTargetStrategy(p VolTargetParams) (*VolTargetStrategy, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	short, long, osc := sma(p.ShortSMA), sma(p.LongSMA), rsi(p.OscillatorPeriod)
	store, err := instrument.NewStore([]string{p.Symbol}, instrument.StateConfig{
		PriceCapacity:  p.MomentumLookback + 1,
		ReturnCapacity: p.VolWindow + 5,
		Indicators:     []indicator.Spec{short, long, osc},
	})
	if err != nil {
		return nil, err
	}

	policy := rebalance.NewVolTarget(rebalance.VolTargetConfig{
		Symbol:           p.Symbol,
		MomentumLookback: p.MomentumLookback,
		VolWindow:        p.VolWindow,
		Oscillator:       osc,
		Classifier: regime.Classifier{
			ShortAverage: short,
			LongAverage:  long,
			Benchmark:    p.Symbol,
		},
		Sizing:             p.Sizing,
		RebalanceThreshold: p.RebalanceThreshold,
	})

	return &VolTargetStrategy{
		params: p,
		store:  store,
		policy: policy,
		warmup: warmup{required: p.WarmupBars},
	}, nil
}

// ID returns the strategy identifier.
func (s *VolTargetStrategy) ID() string { return s.params.ID }

// Variant returns domain.VariantVolTarget.
func (s *VolTargetStrategy) Variant() domain.Variant { return domain.VariantVolTarget }

// Symbols returns the traded symbol.
func (s *VolTargetStrategy) Symbols() []string { return []string{s.params.Symbol} }

// Schedule returns the trigger rule.
func (s *VolTargetStrategy) Schedule() schedule.Rule { return s.params.Schedule }

// Params returns the strategy parameters.
func (s *VolTargetStrategy) Params() VolTargetParams { return s.params }

// Store exposes the indicator store.
func (s *VolTargetStrategy) Store() *instrument.Store { return s.store }

// WarmupBars returns the configured warmup in trading days.
func (s *VolTargetStrategy) WarmupBars() int { return s.params.WarmupBars }

// WarmupComplete reports whether enough trading days were ingested.
func (s *VolTargetStrategy) WarmupComplete() bool { return s.warmup.complete() }

// OnBar ingests bar into the indicator store.
func (s *VolTargetStrategy) OnBar(bar *domain.PriceBar) instrument.RejectReason {
	reason := s.store.Ingest(bar)
	if reason == instrument.RejectNone {
		s.warmup.observe(bar)
	}
	return reason
}

// OnTrigger sizes the position against the current portfolio weight.
func (s *VolTargetStrategy) OnTrigger(_ context.Context, at time.Time, portfolio domain.PortfolioSnapshot) (rebalance.Decision, error) {
	return s.policy.Decide(rebalance.VolTargetInputs{
		Store:          s.store,
		Portfolio:      portfolio,
		At:             at,
		WarmupComplete: s.warmup.complete(),
	}), nil
}

var _ backtest.Strategy = (*VolTargetStrategy)(nil)
