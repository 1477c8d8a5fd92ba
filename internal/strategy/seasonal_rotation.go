package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
	"regime-allocator/internal/indicator"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/rebalance"
	"regime-allocator/internal/regime"
	"regime-allocator/internal/schedule"
	"regime-allocator/internal/selection"
	"regime-allocator/internal/storage"
)

// RotationParams configures SeasonalRotationStrategy.
type RotationParams struct {
	ID             string
	Aggressive     []string // candidates November through April
	Defensive      []string // candidates May through October
	Safety         []string
	Benchmark      string
	MomentumPeriod int
	ROCPeriod      int
	ShortSMA       int
	LongSMA        int
	TopN           int
	MinCandidates  int
	WarmupBars     int
	Schedule       schedule.Rule
}

// DefaultRotationParams returns the sector rotation configuration.
func DefaultRotationParams() RotationParams {
	return RotationParams{
		ID:             "seasonal-rotation",
		Aggressive:     []string{"XLV", "XLI", "XLY", "XLB"},
		Defensive:      []string{"XLK", "XLP", "XLU", "QQQ"},
		Safety:         []string{"TLT", "SHY"},
		Benchmark:      "SPY",
		MomentumPeriod: 63,
		ROCPeriod:      63,
		ShortSMA:       50,
		LongSMA:        200,
		TopN:           3,
		MinCandidates:  2,
		WarmupBars:     210,
		Schedule:       schedule.Rule{Frequency: schedule.Monthly},
	}
}

func (p RotationParams) validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	case len(p.Aggressive) == 0 || len(p.Defensive) == 0:
		return fmt.Errorf("%w: seasonal groups must not be empty", ErrInvalidParams)
	case len(p.Safety) == 0:
		return fmt.Errorf("%w: safety set must not be empty", ErrInvalidParams)
	case hasDuplicate(p.Aggressive) || hasDuplicate(p.Defensive) || hasDuplicate(p.Safety):
		return fmt.Errorf("%w: symbol listed twice in a group", ErrInvalidParams)
	case p.Benchmark == "":
		return fmt.Errorf("%w: benchmark is required", ErrInvalidParams)
	case p.MomentumPeriod <= 0 || p.ROCPeriod <= 0:
		return fmt.Errorf("%w: lookbacks must be positive", ErrInvalidParams)
	case p.ShortSMA <= 0 || p.ShortSMA >= p.LongSMA:
		return fmt.Errorf("%w: short SMA must be positive and below long SMA", ErrInvalidParams)
	case p.TopN <= 0 || p.MinCandidates < 0:
		return fmt.Errorf("%w: invalid top_n or min_candidates", ErrInvalidParams)
	}
	return nil
}

// SeasonalRotationStrategy rotates monthly into the strongest members of the
// seasonal group, falling back to the safety set.
type SeasonalRotationStrategy struct {
	params     RotationParams
	symbols    []string
	store      *instrument.Store
	policy     *rebalance.Rotation
	warmup     warmup
	selection  []string
	selections storage.SelectionStore // optional
}

// NewSeasonalRotationStrategy creates the strategy. selections may be nil;
// when set, every non-skipped trigger persists the new selection there.
func NewSeasonalRotationStrategy(p RotationParams, selections storage.SelectionStore) (*SeasonalRotationStrategy, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	short, long := sma(p.ShortSMA), sma(p.LongSMA)
	momentum, roc := mom(p.MomentumPeriod), rocp(p.ROCPeriod)

	symbols := uniqueSymbols(p.Aggressive, p.Defensive, p.Safety, []string{p.Benchmark})
	store, err := instrument.NewStore(symbols, instrument.StateConfig{
		PriceCapacity:  2,
		ReturnCapacity: 2,
		Indicators:     []indicator.Spec{momentum, long, roc, short},
	})
	if err != nil {
		return nil, err
	}

	policy := rebalance.NewRotation(rebalance.RotationConfig{
		Aggressive: p.Aggressive,
		Defensive:  p.Defensive,
		Selection: selection.Params{
			TopN:        p.TopN,
			MinRequired: p.MinCandidates,
			SafetySet:   p.Safety,
		},
		Specs: selection.Specs{Momentum: momentum, Trend: long, ROC: roc},
		Classifier: regime.Classifier{
			ShortAverage: short,
			LongAverage:  long,
			Benchmark:    p.Benchmark,
		},
	})

	return &SeasonalRotationStrategy{
		params:     p,
		symbols:    symbols,
		store:      store,
		policy:     policy,
		warmup:     warmup{required: p.WarmupBars},
		selections: selections,
	}, nil
}

// ID returns the strategy identifier.
func (s *SeasonalRotationStrategy) ID() string { return s.params.ID }

// Variant returns domain.VariantSeasonalRotation.
func (s *SeasonalRotationStrategy) Variant() domain.Variant {
	return domain.VariantSeasonalRotation
}

// Symbols returns groups, safety set and benchmark without duplicates.
func (s *SeasonalRotationStrategy) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Schedule returns the trigger rule.
func (s *SeasonalRotationStrategy) Schedule() schedule.Rule { return s.params.Schedule }

// Params returns the strategy parameters.
func (s *SeasonalRotationStrategy) Params() RotationParams { return s.params }

// Store exposes the indicator store.
func (s *SeasonalRotationStrategy) Store() *instrument.Store { return s.store }

// WarmupBars returns the configured warmup in trading days.
func (s *SeasonalRotationStrategy) WarmupBars() int { return s.params.WarmupBars }

// WarmupComplete reports whether enough trading days were ingested.
func (s *SeasonalRotationStrategy) WarmupComplete() bool { return s.warmup.complete() }

// Selection returns the current selection.
func (s *SeasonalRotationStrategy) Selection() []string {
	return append([]string(nil), s.selection...)
}

// Restore loads the last persisted selection. A missing entry leaves the
// strategy with an empty selection.
func (s *SeasonalRotationStrategy) Restore(ctx context.Context) error {
	if s.selections == nil {
		return nil
	}
	sel, err := s.selections.Load(ctx, s.params.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore selection: %w", err)
	}
	s.selection = sel
	return nil
}

// OnBar ingests bar into the indicator store.
func (s *SeasonalRotationStrategy) OnBar(bar *domain.PriceBar) instrument.RejectReason {
	reason := s.store.Ingest(bar)
	if reason == instrument.RejectNone {
		s.warmup.observe(bar)
	}
	return reason
}

// OnTrigger ranks the seasonal group and rotates away from the previous
// selection. The portfolio is not consulted.
func (s *SeasonalRotationStrategy) OnTrigger(ctx context.Context, at time.Time, _ domain.PortfolioSnapshot) (rebalance.Decision, error) {
	d, next := s.policy.Decide(s.selection, rebalance.RotationInputs{
		Store:          s.store,
		At:             at,
		WarmupComplete: s.warmup.complete(),
	})
	if d.Skipped() {
		return d, nil
	}

	if s.selections != nil {
		if err := s.selections.Save(ctx, s.params.ID, next); err != nil {
			return d, fmt.Errorf("persist selection: %w", err)
		}
	}
	s.selection = next
	return d, nil
}

var _ backtest.Strategy = (*SeasonalRotationStrategy)(nil)
