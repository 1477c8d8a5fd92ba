package backtest

import (
	"context"
	"fmt"
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/rebalance"
	"regime-allocator/internal/schedule"
)

// stubStrategy records hook calls and answers triggers with decide.
type stubStrategy struct {
	symbols   []string
	rule      schedule.Rule
	warmup    int
	decide    func(at time.Time) (rebalance.Decision, error)
	calls     []string
	snapshots []domain.PortfolioSnapshot
}

func newStubStrategy(decide func(at time.Time) (rebalance.Decision, error)) *stubStrategy {
	return &stubStrategy{
		symbols: []string{"X"},
		rule:    schedule.Rule{Frequency: schedule.Weekly, Weekday: time.Monday},
		decide:  decide,
	}
}

func (s *stubStrategy) ID() string              { return "stub" }
func (s *stubStrategy) Variant() domain.Variant { return domain.VariantVolTarget }
func (s *stubStrategy) Symbols() []string       { return s.symbols }
func (s *stubStrategy) Schedule() schedule.Rule { return s.rule }
func (s *stubStrategy) WarmupBars() int         { return s.warmup }

func (s *stubStrategy) OnBar(bar *domain.PriceBar) instrument.RejectReason {
	if !bar.Valid() {
		return instrument.RejectInvalidPrice
	}
	s.calls = append(s.calls, fmt.Sprintf("bar %s", bar.Time().Format(time.DateOnly)))
	return instrument.RejectNone
}

func (s *stubStrategy) OnTrigger(_ context.Context, at time.Time, p domain.PortfolioSnapshot) (rebalance.Decision, error) {
	s.calls = append(s.calls, fmt.Sprintf("trigger %s", at.Format(time.DateOnly)))
	s.snapshots = append(s.snapshots, p)
	return s.decide(at)
}

func setWeight(symbol string, weight float64) func(time.Time) (rebalance.Decision, error) {
	return func(time.Time) (rebalance.Decision, error) {
		return rebalance.Decision{
			RebalanceDecision: domain.RebalanceDecision{
				Weights: map[string]float64{symbol: weight},
				Reason:  domain.ReasonStrongTrend,
				Metrics: domain.DecisionMetrics{TargetWeight: weight},
			},
			Instructions: []domain.Instruction{domain.SetWeight(symbol, weight)},
			Selection:    []string{symbol},
		}, nil
	}
}

func skipWarmup(time.Time) (rebalance.Decision, error) {
	return rebalance.Decision{
		RebalanceDecision: domain.RebalanceDecision{Reason: domain.ReasonSkippedWarmup},
	}, nil
}

var _ Strategy = (*stubStrategy)(nil)
