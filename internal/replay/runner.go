package replay

import (
	"context"
	"fmt"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/storage"
)

// Runner loads bars from storage and replays them in deterministic order.
type Runner struct {
	barStore storage.PriceBarStore
}

// NewRunner creates a new replay runner.
func NewRunner(barStore storage.PriceBarStore) *Runner {
	return &Runner{barStore: barStore}
}

// Run loads bars for symbols within [from, to] and replays them through the engine.
// Bars are ordered by (timestamp_ms, symbol) before replay.
func (r *Runner) Run(ctx context.Context, symbols []string, from, to int64, engine ReplayEngine) error {
	return r.replay(ctx, symbols, engine, func(symbol string) ([]*domain.PriceBar, error) {
		return r.barStore.GetByTimeRange(ctx, symbol, from, to)
	})
}

// RunAll loads every stored bar of symbols and replays them through the engine.
// An empty symbol list replays every symbol in the store.
func (r *Runner) RunAll(ctx context.Context, symbols []string, engine ReplayEngine) error {
	if len(symbols) == 0 {
		all, err := r.barStore.Symbols(ctx)
		if err != nil {
			return fmt.Errorf("list symbols: %w", err)
		}
		symbols = all
	}
	return r.replay(ctx, symbols, engine, func(symbol string) ([]*domain.PriceBar, error) {
		return r.barStore.GetBySymbol(ctx, symbol)
	})
}

func (r *Runner) replay(ctx context.Context, symbols []string, engine ReplayEngine, load func(string) ([]*domain.PriceBar, error)) error {
	series := make([][]*domain.PriceBar, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if seen[sym] {
			continue
		}
		seen[sym] = true

		bars, err := load(sym)
		if err != nil {
			return fmt.Errorf("load bars %s: %w", sym, err)
		}
		series = append(series, bars)
	}

	events := MergeBars(series...)
	if err := VerifyOrdering(events); err != nil {
		return err
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.OnEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
