package metrics

import (
	"context"
	"errors"
	"testing"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/storage/memory"
)

func decisions() []*domain.DecisionRecord {
	return []*domain.DecisionRecord{
		{DecisionID: "d1", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: 1000, Reason: domain.ReasonSkippedWarmup},
		{
			DecisionID: "d2", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: 2000,
			Reason:       domain.ReasonRotateTopN,
			Metrics:      domain.DecisionMetrics{TargetWeight: 0.5, MarketFallback: true},
			Selection:    []string{"A", "B"},
			Instructions: []domain.Instruction{domain.SetWeight("A", 0.5), domain.SetWeight("B", 0.5)},
		},
		{
			DecisionID: "d3", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: 3000,
			Reason:       domain.ReasonSafetyBearish,
			Metrics:      domain.DecisionMetrics{TargetWeight: 1},
			Selection:    []string{"TLT"},
			Instructions: []domain.Instruction{domain.Liquidate("A"), domain.Liquidate("B"), domain.SetWeight("TLT", 1)},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(decisions())

	if s.StrategyID != "rot" || s.Variant != domain.VariantSeasonalRotation {
		t.Errorf("unexpected identity %s/%s", s.StrategyID, s.Variant)
	}
	if s.Triggers != 3 || s.Skipped != 1 || s.Traded != 2 {
		t.Errorf("expected 3 triggers, 1 skipped, 2 traded; got %d, %d, %d", s.Triggers, s.Skipped, s.Traded)
	}
	if s.MarketFallbacks != 1 {
		t.Errorf("expected 1 fallback, got %d", s.MarketFallbacks)
	}
	if s.ByInstruction[domain.InstructionLiquidate] != 2 || s.ByInstruction[domain.InstructionSetWeight] != 3 {
		t.Errorf("unexpected instruction counts %v", s.ByInstruction)
	}
	if !approx(s.MeanTargetWeight, 0.75) {
		t.Errorf("expected mean target 0.75, got %f", s.MeanTargetWeight)
	}
	if s.SelectionFrequency["A"] != 1 || s.SelectionFrequency["TLT"] != 1 {
		t.Errorf("unexpected selection frequency %v", s.SelectionFrequency)
	}
	if s.FirstTimestampMs != 1000 || s.LastTimestampMs != 3000 {
		t.Errorf("unexpected range %d..%d", s.FirstTimestampMs, s.LastTimestampMs)
	}
}

func TestDecisionSummary_ReasonsOrdered(t *testing.T) {
	recs := decisions()
	recs = append(recs, &domain.DecisionRecord{DecisionID: "d4", StrategyID: "rot", TimestampMs: 4000, Reason: domain.ReasonSafetyBearish})

	got := Summarize(recs).Reasons()
	want := []domain.ReasonCode{domain.ReasonSafetyBearish, domain.ReasonRotateTopN, domain.ReasonSkippedWarmup}
	if len(got) != len(want) {
		t.Fatalf("expected %d reasons, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reason %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestAggregator_Summarize(t *testing.T) {
	store := memory.NewDecisionRecordStore()
	ctx := context.Background()
	if err := store.InsertBulk(ctx, decisions()); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	s, err := NewAggregator(store).Summarize(ctx, "rot")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.Triggers != 3 {
		t.Errorf("expected 3 triggers, got %d", s.Triggers)
	}

	_, err = NewAggregator(store).Summarize(ctx, "missing")
	if !errors.Is(err, ErrNoDecisions) {
		t.Errorf("expected ErrNoDecisions, got %v", err)
	}
}
