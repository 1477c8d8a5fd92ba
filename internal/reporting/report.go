// Package reporting renders backtest results as Markdown and CSV.
package reporting

import (
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/metrics"
)

// Report represents one backtest report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	StrategyID  string
	Variant     domain.Variant
	Schedule    string

	// Replayed window, UTC days
	From time.Time
	To   time.Time

	Performance    *metrics.Performance
	Decisions      *metrics.DecisionSummary
	FinalSelection []string
	FinalHoldings  []HoldingRow

	// Decision records in timestamp order, for the CSV export
	Records []*domain.DecisionRecord
}

// HoldingRow is one position at the end of the run.
type HoldingRow struct {
	Symbol   string
	Quantity float64
	Value    float64
	Weight   float64
}
