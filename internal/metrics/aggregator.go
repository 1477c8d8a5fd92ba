package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/storage"
)

// ErrNoDecisions is returned when a strategy has no decision records.
var ErrNoDecisions = errors.New("no decision records available for aggregation")

// DecisionSummary aggregates the decision records of one strategy.
type DecisionSummary struct {
	StrategyID         string
	Variant            domain.Variant
	Triggers           int
	Skipped            int
	Traded             int
	MarketFallbacks    int
	ByReason           map[domain.ReasonCode]int
	ByInstruction      map[domain.InstructionKind]int
	MeanTargetWeight   float64 // over non-skipped decisions
	SelectionFrequency map[string]int
	FirstTimestampMs   int64
	LastTimestampMs    int64
}

// Reasons returns reason codes sorted by count DESC, code ASC.
func (s *DecisionSummary) Reasons() []domain.ReasonCode {
	out := make([]domain.ReasonCode, 0, len(s.ByReason))
	for r := range s.ByReason {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.ByReason[out[i]] != s.ByReason[out[j]] {
			return s.ByReason[out[i]] > s.ByReason[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Summarize aggregates records. Records are expected to share a strategy.
func Summarize(records []*domain.DecisionRecord) *DecisionSummary {
	s := &DecisionSummary{
		ByReason:           make(map[domain.ReasonCode]int),
		ByInstruction:      make(map[domain.InstructionKind]int),
		SelectionFrequency: make(map[string]int),
	}
	if len(records) == 0 {
		return s
	}

	s.StrategyID = records[0].StrategyID
	s.Variant = records[0].Variant
	s.FirstTimestampMs = records[0].TimestampMs
	s.LastTimestampMs = records[0].TimestampMs

	targetSum, targetN := 0.0, 0
	for _, r := range records {
		s.Triggers++
		s.ByReason[r.Reason]++
		if r.TimestampMs < s.FirstTimestampMs {
			s.FirstTimestampMs = r.TimestampMs
		}
		if r.TimestampMs > s.LastTimestampMs {
			s.LastTimestampMs = r.TimestampMs
		}

		if r.Reason == domain.ReasonSkippedWarmup || r.Reason == domain.ReasonSkippedNotReady {
			s.Skipped++
			continue
		}
		targetSum += r.Metrics.TargetWeight
		targetN++
		if r.Metrics.MarketFallback {
			s.MarketFallbacks++
		}
		for _, sym := range r.Selection {
			s.SelectionFrequency[sym]++
		}
		if r.Traded() {
			s.Traded++
		}
		for _, in := range r.Instructions {
			s.ByInstruction[in.Kind]++
		}
	}
	if targetN > 0 {
		s.MeanTargetWeight = targetSum / float64(targetN)
	}
	return s
}

// Aggregator summarizes stored decision records.
type Aggregator struct {
	records storage.DecisionRecordStore
}

// NewAggregator creates a new decision aggregator.
func NewAggregator(records storage.DecisionRecordStore) *Aggregator {
	return &Aggregator{records: records}
}

// Summarize loads every record of strategyID and aggregates them.
// Returns ErrNoDecisions if the strategy has none.
func (a *Aggregator) Summarize(ctx context.Context, strategyID string) (*DecisionSummary, error) {
	records, err := a.records.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load decisions %s: %w", strategyID, err)
	}
	if len(records) == 0 {
		return nil, ErrNoDecisions
	}
	return Summarize(records), nil
}
