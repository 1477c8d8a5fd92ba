package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regime-allocator/internal/storage"
)

func TestSelectionStore_Key(t *testing.T) {
	db, _ := redismock.NewClientMock()

	assert.Equal(t, "allocator:selection:seasonal", NewSelectionStore(db, "").Key("seasonal"))
	assert.Equal(t, "live:seasonal", NewSelectionStore(db, "live").Key("seasonal"))
}

func TestSelectionStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	payload, _ := json.Marshal([]string{"XLV", "XLY"})
	mock.ExpectSet("allocator:selection:seasonal", payload, 0).SetVal("OK")

	require.NoError(t, store.Save(context.Background(), "seasonal", []string{"XLV", "XLY"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionStore_SaveNilStoresEmptyList(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	mock.ExpectSet("allocator:selection:seasonal", []byte("[]"), 0).SetVal("OK")

	require.NoError(t, store.Save(context.Background(), "seasonal", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionStore_SaveError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	mock.ExpectSet("allocator:selection:seasonal", []byte(`["TLT"]`), 0).SetErr(redis.TxFailedErr)

	err := store.Save(context.Background(), "seasonal", []string{"TLT"})
	assert.ErrorIs(t, err, redis.TxFailedErr)
	assert.ErrorIs(t, store.Save(context.Background(), "", nil), storage.ErrInvalidInput)
}

func TestSelectionStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	mock.ExpectGet("allocator:selection:seasonal").SetVal(`["TLT","SHY"]`)

	got, err := store.Load(context.Background(), "seasonal")
	require.NoError(t, err)
	assert.Equal(t, []string{"TLT", "SHY"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionStore_LoadMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	mock.ExpectGet("allocator:selection:seasonal").RedisNil()

	_, err := store.Load(context.Background(), "seasonal")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSelectionStore_LoadCorrupt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSelectionStore(db, "")

	mock.ExpectGet("allocator:selection:seasonal").SetVal("invalid json")

	_, err := store.Load(context.Background(), "seasonal")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}
