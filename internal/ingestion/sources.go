// Package ingestion loads daily price bars from external sources into the
// bar store.
package ingestion

import (
	"context"

	"regime-allocator/internal/domain"
)

// BarSource provides raw daily bars from external sources.
type BarSource interface {
	// Fetch returns bars for a symbol within time range [from, to] (inclusive).
	// Bars may be unordered; Manager enforces deterministic ordering.
	Fetch(ctx context.Context, symbol string, from, to int64) ([]*domain.PriceBar, error)

	// Symbols lists the symbols the source can provide, sorted.
	Symbols(ctx context.Context) ([]string, error)
}
