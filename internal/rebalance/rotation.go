package rebalance

import (
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/regime"
	"regime-allocator/internal/selection"
)

// RotationConfig configures the multi-instrument policy.
type RotationConfig struct {
	Aggressive []string // candidates during winter (Nov-Apr)
	Defensive  []string // candidates during summer (May-Oct)
	Selection  selection.Params
	Specs      selection.Specs
	Classifier regime.Classifier
}

// RotationInputs is the state consulted at one trigger.
type RotationInputs struct {
	Store          *instrument.Store
	At             time.Time
	WarmupComplete bool
}

// Rotation rotates among the seasonal group by momentum rank.
type Rotation struct {
	cfg RotationConfig
}

// NewRotation creates the multi-instrument policy.
func NewRotation(cfg RotationConfig) *Rotation {
	return &Rotation{cfg: cfg}
}

// Config returns the policy configuration.
func (r *Rotation) Config() RotationConfig { return r.cfg }

// Group returns the candidate group for evaluation time at.
func (r *Rotation) Group(at time.Time) []string {
	if regime.IsWinterSeason(at) {
		return r.cfg.Aggressive
	}
	return r.cfg.Defensive
}

// Decide maps (previous selection, current state) to the new selection and
// its instructions. Symbols held previously but not selected now are
// liquidated; every selected symbol is set to equal weight, unchanged or not.
// The returned selection is the one the caller should pass next time. A
// skipped trigger returns previous unchanged.
func (r *Rotation) Decide(previous []string, in RotationInputs) (Decision, []string) {
	if !in.WarmupComplete {
		return skipped(domain.ReasonSkippedWarmup), previous
	}

	snap, _ := r.cfg.Classifier.Classify(in.Store, "", in.At)
	candidates := selection.Candidates(in.Store, r.Group(in.At), r.cfg.Specs)
	res := r.cfg.Selection.Select(candidates, snap.MarketBullish)

	weights := selection.EqualWeights(res.Selection)
	selected := make(map[string]struct{}, len(res.Selection))
	for _, sym := range res.Selection {
		selected[sym] = struct{}{}
	}

	var instructions []domain.Instruction
	for _, sym := range previous {
		if _, keep := selected[sym]; !keep {
			instructions = append(instructions, domain.Liquidate(sym))
		}
	}
	for _, sym := range res.Selection {
		instructions = append(instructions, domain.SetWeight(sym, weights[sym]))
	}

	target := 0.0
	if len(res.Selection) > 0 {
		target = 1.0 / float64(len(res.Selection))
	}

	d := Decision{
		RebalanceDecision: domain.RebalanceDecision{
			Weights: weights,
			Reason:  res.Reason,
			Metrics: domain.DecisionMetrics{
				TargetWeight:    target,
				QualifyingCount: len(res.Scored),
				MarketBullish:   snap.MarketBullish,
				MarketFallback:  snap.MarketFallback,
				WinterSeason:    snap.IsWinterSeason,
			},
		},
		Instructions: instructions,
		Selection:    res.Selection,
	}
	return d, append([]string(nil), res.Selection...)
}
