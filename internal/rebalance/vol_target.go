package rebalance

import (
	"math"
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/indicator"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/regime"
	"regime-allocator/internal/sizing"
)

// DefaultRebalanceThreshold is the hysteresis band of the single-instrument policy.
const DefaultRebalanceThreshold = 0.10

// VolTargetConfig configures the single-instrument policy.
type VolTargetConfig struct {
	Symbol             string
	MomentumLookback   int
	VolWindow          int
	Oscillator         indicator.Spec
	Classifier         regime.Classifier
	Sizing             sizing.Params
	RebalanceThreshold float64
}

// VolTargetInputs is the state consulted at one trigger.
type VolTargetInputs struct {
	Store          *instrument.Store
	Portfolio      domain.PortfolioSnapshot
	At             time.Time
	WarmupComplete bool
}

// VolTarget sizes one instrument with volatility-targeted leverage.
type VolTarget struct {
	cfg VolTargetConfig
}

// NewVolTarget creates the single-instrument policy.
func NewVolTarget(cfg VolTargetConfig) *VolTarget {
	return &VolTarget{cfg: cfg}
}

// Config returns the policy configuration.
func (v *VolTarget) Config() VolTargetConfig { return v.cfg }

// Decide computes the target and emits a set-weight instruction only when
// the current weight is more than RebalanceThreshold away from it.
func (v *VolTarget) Decide(in VolTargetInputs) Decision {
	if !in.WarmupComplete {
		return skipped(domain.ReasonSkippedWarmup)
	}

	state, ok := in.Store.Get(v.cfg.Symbol)
	if !ok || !state.Ready(v.cfg.Classifier.ShortAverage, v.cfg.Classifier.LongAverage, v.cfg.Oscillator) {
		return skipped(domain.ReasonSkippedNotReady)
	}
	momentum, ok := state.Momentum(v.cfg.MomentumLookback)
	if !ok {
		return skipped(domain.ReasonSkippedNotReady)
	}
	vol, ok := state.RealizedVolatility(v.cfg.VolWindow)
	if !ok {
		return skipped(domain.ReasonSkippedNotReady)
	}
	snap, ok := v.cfg.Classifier.Classify(in.Store, v.cfg.Symbol, in.At)
	if !ok {
		return skipped(domain.ReasonSkippedNotReady)
	}

	osc, _ := state.Indicator(v.cfg.Oscillator)
	res := v.cfg.Sizing.Size(sizing.Inputs{
		Momentum:      momentum,
		RealizedVol:   vol,
		AboveLongAvg:  snap.AboveLongAvg,
		AboveShortAvg: snap.AboveShortAvg,
		GoldenCross:   snap.GoldenCross,
		Oscillator:    osc.Value(),
	})

	current := in.Portfolio.Weight(v.cfg.Symbol)
	d := Decision{
		RebalanceDecision: domain.RebalanceDecision{
			Weights: map[string]float64{v.cfg.Symbol: res.Target},
			Reason:  res.Reason,
			Metrics: domain.DecisionMetrics{
				Momentum:       momentum,
				RealizedVol:    vol,
				VolScalar:      res.VolScalar,
				Oscillator:     osc.Value(),
				CurrentWeight:  current,
				TargetWeight:   res.Target,
				MarketBullish:  snap.MarketBullish,
				MarketFallback: snap.MarketFallback,
				WinterSeason:   snap.IsWinterSeason,
			},
		},
	}
	if res.Target > 0 {
		d.Selection = []string{v.cfg.Symbol}
	}

	if math.Abs(current-res.Target) > v.cfg.RebalanceThreshold {
		d.Instructions = []domain.Instruction{domain.SetWeight(v.cfg.Symbol, res.Target)}
	} else {
		d.Reason = domain.ReasonHoldWithinBand
	}
	return d
}
