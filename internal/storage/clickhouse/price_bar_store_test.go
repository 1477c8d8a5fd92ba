package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/storage"
	"regime-allocator/internal/storage/clickhouse"
)

func TestPriceBarStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewPriceBarStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	bars := []*domain.PriceBar{
		{Symbol: "MSFT", TimestampMs: 2000, Close: 411.5},
		{Symbol: "MSFT", TimestampMs: 1000, Close: 410.25},
	}
	require.NoError(t, store.InsertBulk(ctx, bars))

	got, err := store.GetBySymbol(ctx, "MSFT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MSFT", got[0].Symbol)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, 410.25, got[0].Close)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
}

func TestPriceBarStore_InsertBulk_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewPriceBarStore(conn)
	ctx := context.Background()

	bars := []*domain.PriceBar{{Symbol: "MSFT", TimestampMs: 1000, Close: 410}}
	require.NoError(t, store.InsertBulk(ctx, bars))

	err := store.InsertBulk(ctx, bars)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, []*domain.PriceBar{
		{Symbol: "SPY", TimestampMs: 1000, Close: 400},
		{Symbol: "SPY", TimestampMs: 1000, Close: 401},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPriceBarStore_GetByTimeRangeAndSymbols(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewPriceBarStore(conn)
	ctx := context.Background()

	bars := []*domain.PriceBar{
		{Symbol: "SPY", TimestampMs: 1000, Close: 400},
		{Symbol: "SPY", TimestampMs: 2000, Close: 401},
		{Symbol: "SPY", TimestampMs: 3000, Close: 402},
		{Symbol: "TLT", TimestampMs: 2000, Close: 95},
	}
	require.NoError(t, store.InsertBulk(ctx, bars))

	got, err := store.GetByTimeRange(ctx, "SPY", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 401.0, got[0].Close)

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "TLT"}, symbols)
}
