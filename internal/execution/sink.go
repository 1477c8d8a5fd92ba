// Package execution defines how rebalancing instructions leave the decision
// core. Implementations live in subpackages.
package execution

import (
	"context"

	"regime-allocator/internal/domain"
)

// Order is the instruction batch of one decision.
type Order struct {
	DecisionID   string               `json:"decision_id"`
	StrategyID   string               `json:"strategy_id"`
	TimestampMs  int64                `json:"timestamp_ms"`
	Instructions []domain.Instruction `json:"instructions"`
}

// NewOrder builds the order carried by rec.
func NewOrder(rec *domain.DecisionRecord) *Order {
	return &Order{
		DecisionID:   rec.DecisionID,
		StrategyID:   rec.StrategyID,
		TimestampMs:  rec.TimestampMs,
		Instructions: rec.Instructions,
	}
}

// Sink receives orders. Instructions are applied in slice order.
type Sink interface {
	Submit(ctx context.Context, order *Order) error
}

// PortfolioReader exposes the current holdings consulted for hysteresis.
type PortfolioReader interface {
	Snapshot() domain.PortfolioSnapshot
}

// MultiSink fans an order out to several sinks in order.
// The first error stops the fan-out.
type MultiSink []Sink

// Submit forwards order to every sink.
func (m MultiSink) Submit(ctx context.Context, order *Order) error {
	for _, s := range m {
		if err := s.Submit(ctx, order); err != nil {
			return err
		}
	}
	return nil
}
