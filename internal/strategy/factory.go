package strategy

import (
	"fmt"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/config"
	"regime-allocator/internal/schedule"
	"regime-allocator/internal/sizing"
	"regime-allocator/internal/storage"
)

// FromConfig creates a strategy from its configuration.
// selections is only used by the rotation variant and may be nil.
func FromConfig(cfg config.StrategyConfig, selections storage.SelectionStore) (backtest.Strategy, error) {
	rule, err := schedule.ParseRule(cfg.Schedule.Frequency, cfg.Schedule.Anchor)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", cfg.ID, err)
	}

	switch cfg.Variant {
	case config.VariantVolTarget:
		v := cfg.VolTarget
		s, err := NewVolTargetStrategy(VolTargetParams{
			ID:                 cfg.ID,
			Symbol:             v.Symbol,
			MomentumLookback:   v.MomentumLookback,
			VolWindow:          v.VolWindow,
			ShortSMA:           cfg.Regime.ShortSMA,
			LongSMA:            cfg.Regime.LongSMA,
			OscillatorPeriod:   v.OscillatorPeriod,
			RebalanceThreshold: v.RebalanceThreshold,
			Sizing:             sizingParams(v.Sizing),
			WarmupBars:         cfg.WarmupBars,
			Schedule:           rule,
		})
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.VariantSeasonalRotation:
		r := cfg.Rotation
		s, err := NewSeasonalRotationStrategy(RotationParams{
			ID:             cfg.ID,
			Aggressive:     r.Aggressive,
			Defensive:      r.Defensive,
			Safety:         r.Safety,
			Benchmark:      cfg.Regime.Benchmark,
			MomentumPeriod: r.MomentumPeriod,
			ROCPeriod:      r.ROCPeriod,
			ShortSMA:       cfg.Regime.ShortSMA,
			LongSMA:        cfg.Regime.LongSMA,
			TopN:           r.TopN,
			MinCandidates:  r.MinCandidates,
			WarmupBars:     cfg.WarmupBars,
			Schedule:       rule,
		}, selections)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidParams, cfg.Variant)
	}
}

func sizingParams(c config.SizingConfig) sizing.Params {
	return sizing.Params{
		TargetVol:           c.TargetVol,
		VolFloor:            c.VolFloor,
		BaseLeverage:        c.BaseLeverage,
		StrongTrendLeverage: c.StrongTrendLeverage,
		MaxLeverage:         c.MaxLeverage,
		OversoldBelow:       c.OversoldBelow,
		OverboughtAbove:     c.OverboughtAbove,
		DipBoost:            c.DipBoost,
		OverboughtTrim:      c.OverboughtTrim,
		ModerateMin:         c.ModerateMin,
		ModerateMax:         c.ModerateMax,
	}
}
