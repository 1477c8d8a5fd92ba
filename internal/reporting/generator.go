package reporting

import (
	"context"
	"sort"
	"time"

	"regime-allocator/internal/backtest"
	"regime-allocator/internal/domain"
	"regime-allocator/internal/metrics"
	"regime-allocator/internal/storage"
)

// Generator produces reports from backtest results or stored decisions.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from a finished run. portfolio is the final
// broker snapshot; positions maps held symbols to quantities.
func (g *Generator) Generate(results *backtest.Results, schedule string, portfolio domain.PortfolioSnapshot, positions map[string]float64) *Report {
	r := &Report{
		GeneratedAt:    g.now(),
		RunID:          results.RunID,
		StrategyID:     results.StrategyID,
		Variant:        results.Variant,
		Schedule:       schedule,
		Performance:    metrics.Compute(results.Equity),
		Decisions:      metrics.Summarize(results.Decisions),
		FinalSelection: append([]string(nil), results.FinalSelection...),
		FinalHoldings:  holdingRows(portfolio, positions),
		Records:        results.Decisions,
	}
	if n := len(results.Equity); n > 0 {
		r.From = results.Equity[0].Day
		r.To = results.Equity[n-1].Day
	}
	return r
}

// GenerateFromStore builds a decision-only report from persisted records.
// Performance is left empty because no equity curve is stored.
func (g *Generator) GenerateFromStore(ctx context.Context, records storage.DecisionRecordStore, strategyID string) (*Report, error) {
	recs, err := records.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, metrics.ErrNoDecisions
	}

	summary := metrics.Summarize(recs)
	r := &Report{
		GeneratedAt: g.now(),
		StrategyID:  strategyID,
		Variant:     summary.Variant,
		From:        time.UnixMilli(summary.FirstTimestampMs).UTC(),
		To:          time.UnixMilli(summary.LastTimestampMs).UTC(),
		Performance: &metrics.Performance{},
		Decisions:   summary,
		Records:     recs,
	}
	for i := len(recs) - 1; i >= 0; i-- {
		reason := recs[i].Reason
		if reason != domain.ReasonSkippedWarmup && reason != domain.ReasonSkippedNotReady {
			r.FinalSelection = append([]string(nil), recs[i].Selection...)
			break
		}
	}
	return r, nil
}

// holdingRows lists positions sorted by symbol.
func holdingRows(portfolio domain.PortfolioSnapshot, positions map[string]float64) []HoldingRow {
	rows := make([]HoldingRow, 0, len(positions))
	for sym, qty := range positions {
		rows = append(rows, HoldingRow{
			Symbol:   sym,
			Quantity: qty,
			Value:    portfolio.Holdings[sym],
			Weight:   portfolio.Weight(sym),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}
