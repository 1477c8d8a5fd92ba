package storage

import (
	"context"

	"regime-allocator/internal/domain"
)

// PriceBarStore provides access to price_bars storage.
type PriceBarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceBar, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceBar, error)

	// Symbols lists every symbol with at least one bar, sorted.
	Symbols(ctx context.Context) ([]string, error)
}

// DecisionRecordStore provides access to decision_records storage.
type DecisionRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if decision_id exists.
	Insert(ctx context.Context, r *domain.DecisionRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.DecisionRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, decisionID string) (*domain.DecisionRecord, error)

	// GetByStrategy retrieves all records of a strategy, ordered by timestamp ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.DecisionRecord, error)
}

// SelectionStore keeps the last selection of a rotation strategy so a live
// process can resume where it left off.
type SelectionStore interface {
	// Save replaces the stored selection for strategyID.
	Save(ctx context.Context, strategyID string, selection []string) error

	// Load returns the stored selection. Returns ErrNotFound if nothing was saved.
	Load(ctx context.Context, strategyID string) ([]string, error)
}
