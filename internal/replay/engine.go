package replay

import (
	"context"

	"regime-allocator/internal/domain"
)

// Event is one bar delivered in replay order.
type Event struct {
	Sequence int // zero-based position in the replayed stream
	Bar      *domain.PriceBar
}

// ReplayEngine processes events in deterministic order.
type ReplayEngine interface {
	// OnEvent is called for each event in order.
	// Events are guaranteed to be ordered by (timestamp_ms, symbol).
	OnEvent(ctx context.Context, event *Event) error
}
