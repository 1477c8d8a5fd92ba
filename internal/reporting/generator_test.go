package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
	"regime-allocator/internal/metrics"
	"regime-allocator/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleRecords() []*domain.DecisionRecord {
	day := func(d int) int64 { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).UnixMilli() }
	return []*domain.DecisionRecord{
		{DecisionID: "d1", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: day(2), Reason: domain.ReasonSkippedWarmup},
		{
			DecisionID: "d2", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: day(3),
			Reason:       domain.ReasonRotateTopN,
			Metrics:      domain.DecisionMetrics{TargetWeight: 0.5, MarketBullish: true, WinterSeason: true, QualifyingCount: 3},
			Selection:    []string{"XLV", "XLI"},
			Instructions: []domain.Instruction{domain.SetWeight("XLV", 0.5), domain.SetWeight("XLI", 0.5)},
		},
		{
			DecisionID: "d3", StrategyID: "rot", Variant: domain.VariantSeasonalRotation, TimestampMs: day(4),
			Reason: domain.ReasonSkippedNotReady,
		},
	}
}

func sampleResults() *backtest.Results {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Results{
		RunID:      "run-1",
		StrategyID: "rot",
		Variant:    domain.VariantSeasonalRotation,
		Decisions:  sampleRecords(),
		Equity: []backtest.EquityPoint{
			{Day: start, Equity: 1000},
			{Day: start.AddDate(0, 0, 1), Equity: 1100},
			{Day: start.AddDate(0, 0, 2), Equity: 1050},
		},
		FinalSelection: []string{"XLV", "XLI"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	portfolio := domain.PortfolioSnapshot{
		Holdings:   map[string]float64{"XLV": 525, "XLI": 525},
		TotalValue: 1050,
	}
	positions := map[string]float64{"XLV": 5, "XLI": 10}

	r := NewGenerator().WithClock(func() time.Time { return fixedNow }).
		Generate(sampleResults(), "monthly/month_start", portfolio, positions)

	if !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("expected clock time, got %s", r.GeneratedAt)
	}
	if r.From.Day() != 1 || r.To.Day() != 3 {
		t.Errorf("unexpected window %s..%s", r.From, r.To)
	}
	if r.Performance.Days != 3 {
		t.Errorf("expected 3 days, got %d", r.Performance.Days)
	}
	if r.Decisions.Triggers != 3 || r.Decisions.Skipped != 2 {
		t.Errorf("unexpected decision summary %+v", r.Decisions)
	}
	if len(r.FinalHoldings) != 2 || r.FinalHoldings[0].Symbol != "XLI" {
		t.Fatalf("expected holdings sorted by symbol, got %+v", r.FinalHoldings)
	}
	if r.FinalHoldings[0].Weight != 0.5 {
		t.Errorf("expected weight 0.5, got %f", r.FinalHoldings[0].Weight)
	}
}

func TestGenerator_GenerateFromStore(t *testing.T) {
	store := memory.NewDecisionRecordStore()
	ctx := context.Background()
	if err := store.InsertBulk(ctx, sampleRecords()); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	r, err := NewGenerator().GenerateFromStore(ctx, store, "rot")
	if err != nil {
		t.Fatalf("GenerateFromStore failed: %v", err)
	}
	// The last record is a skip; the selection comes from the one before it.
	if strings.Join(r.FinalSelection, ",") != "XLV,XLI" {
		t.Errorf("expected XLV,XLI, got %v", r.FinalSelection)
	}
	if r.From.Day() != 2 || r.To.Day() != 4 {
		t.Errorf("unexpected window %s..%s", r.From, r.To)
	}

	_, err = NewGenerator().GenerateFromStore(ctx, store, "missing")
	if !errors.Is(err, metrics.ErrNoDecisions) {
		t.Errorf("expected ErrNoDecisions, got %v", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	r := NewGenerator().WithClock(func() time.Time { return fixedNow }).
		Generate(sampleResults(), "monthly/month_start", domain.PortfolioSnapshot{}, nil)

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Backtest Report: rot",
		"Generated: 2024-06-01T12:00:00Z",
		"Run: run-1",
		"Variant: seasonal_rotation | Schedule: monthly/month_start | Window: 2024-01-01 to 2024-01-03",
		"| Total Return | 5.00% |",
		"| Max Drawdown | 4.55% |",
		"| ROTATE_TOP_N | 1 |",
		"| XLV | 1 |",
		"Selection: XLV, XLI",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{StrategyID: "x", GeneratedAt: fixedNow})
	for _, want := range []string{"No equity curve available.", "No decisions recorded.", "Selection: -"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	csv := RenderCSV(sampleRecords())
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "decision_id,strategy_id,variant,date,reason,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	header := strings.Split(lines[0], ",")
	for i, line := range lines[1:] {
		if got := len(strings.Split(line, ",")); got != len(header) {
			t.Errorf("row %d: expected %d fields, got %d", i, len(header), got)
		}
	}
	if !strings.HasSuffix(lines[2], ",XLV|XLI,set_weight:XLV=0.5000|set_weight:XLI=0.5000") {
		t.Errorf("unexpected row %q", lines[2])
	}
	if !strings.Contains(lines[2], ",2024-01-03,ROTATE_TOP_N,") {
		t.Errorf("expected date and reason in %q", lines[2])
	}
}

func TestFormatInstructions(t *testing.T) {
	got := formatInstructions([]domain.Instruction{domain.Liquidate("A"), domain.SetWeight("B", 1.84)})
	if got != "liquidate:A|set_weight:B=1.8400" {
		t.Errorf("unexpected %q", got)
	}
	if formatInstructions(nil) != "" {
		t.Error("expected empty string")
	}
}
