// Package rebalance turns indicator and regime state into rebalancing
// instructions, once per schedule trigger.
//
// Two policies are provided. VolTarget sizes a single instrument and
// suppresses trades inside a hysteresis band. Rotation ranks a seasonal
// candidate group and re-asserts equal weights on every trigger.
package rebalance

import (
	"regime-allocator/internal/domain"
	"regime-allocator/internal/idhash"
)

// Decision is the outcome of one trigger.
type Decision struct {
	domain.RebalanceDecision
	Instructions []domain.Instruction
	Selection    []string
}

// Skipped reports whether the trigger abstained because of warmup or
// indicator readiness.
func (d Decision) Skipped() bool {
	return d.Reason == domain.ReasonSkippedWarmup || d.Reason == domain.ReasonSkippedNotReady
}

// Record converts the decision into its observability record.
func (d Decision) Record(strategyID string, variant domain.Variant, timestampMs int64) *domain.DecisionRecord {
	return &domain.DecisionRecord{
		DecisionID:   idhash.ComputeDecisionID(strategyID, variant, timestampMs),
		StrategyID:   strategyID,
		Variant:      variant,
		TimestampMs:  timestampMs,
		Reason:       d.Reason,
		Metrics:      d.Metrics,
		Selection:    append([]string(nil), d.Selection...),
		Instructions: append([]domain.Instruction(nil), d.Instructions...),
	}
}

func skipped(reason domain.ReasonCode) Decision {
	return Decision{RebalanceDecision: domain.RebalanceDecision{Reason: reason}}
}
