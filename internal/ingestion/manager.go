package ingestion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/observability"
	"regime-allocator/internal/storage"
)

// Manager orchestrates ingestion from a source to storage.
// It drops invalid bars, enforces deterministic ordering and relies on the
// storage layer for duplicate rejection.
type Manager struct {
	source BarSource
	store  storage.PriceBarStore
	log    zerolog.Logger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Source BarSource
	Store  storage.PriceBarStore
	Logger zerolog.Logger
}

// Result counts bars of one ingestion call.
type Result struct {
	Ingested int
	Rejected int
}

// NewManager creates a new ingestion manager.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		source: opts.Source,
		store:  opts.Store,
		log:    opts.Logger,
	}
}

// IngestBars fetches bars of symbol within [from, to] and stores them.
// Duplicates are rejected by the storage layer (ErrDuplicateKey); a
// duplicate inside the fetched batch yields ErrInvalidOrdering.
func (m *Manager) IngestBars(ctx context.Context, symbol string, from, to int64) (Result, error) {
	bars, err := m.source.Fetch(ctx, symbol, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return m.insert(ctx, symbol, bars)
}

// IngestAll ingests every symbol of the source within [from, to].
func (m *Manager) IngestAll(ctx context.Context, from, to int64) (Result, error) {
	symbols, err := m.source.Symbols(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list symbols: %w", err)
	}

	var total Result
	for _, sym := range symbols {
		res, err := m.IngestBars(ctx, sym, from, to)
		total.Ingested += res.Ingested
		total.Rejected += res.Rejected
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m *Manager) insert(ctx context.Context, symbol string, bars []*domain.PriceBar) (Result, error) {
	var res Result
	valid := make([]*domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		if !b.Valid() {
			res.Rejected++
			observability.RecordBarRejected("invalid_price")
			continue
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return res, nil
	}

	SortBars(valid)
	if err := ValidateBarOrdering(valid); err != nil {
		return res, fmt.Errorf("%s: %w", symbol, err)
	}

	if err := m.store.InsertBulk(ctx, valid); err != nil {
		return res, fmt.Errorf("store %s: %w", symbol, err)
	}
	res.Ingested = len(valid)

	m.log.Info().
		Str("symbol", symbol).
		Int("ingested", res.Ingested).
		Int("rejected", res.Rejected).
		Msg("bars ingested")
	return res, nil
}
