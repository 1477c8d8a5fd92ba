package backtest

import (
	"context"
	"time"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/instrument"
	"regime-allocator/internal/rebalance"
	"regime-allocator/internal/schedule"
)

// Strategy defines hooks for backtest execution.
type Strategy interface {
	// ID returns the strategy identifier used in decision records.
	ID() string

	// Variant returns the decision policy.
	Variant() domain.Variant

	// Symbols returns every symbol the strategy consumes.
	Symbols() []string

	// Schedule returns the trigger rule.
	Schedule() schedule.Rule

	// WarmupBars returns the trading days of history the strategy needs
	// before its first live decision.
	WarmupBars() int

	// OnBar ingests one bar. A non-empty reason means the bar was dropped.
	OnBar(bar *domain.PriceBar) instrument.RejectReason

	// OnTrigger evaluates the policy at a schedule trigger against the
	// current portfolio.
	OnTrigger(ctx context.Context, at time.Time, portfolio domain.PortfolioSnapshot) (rebalance.Decision, error)
}
