package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"regime-allocator/internal/storage"
)

func TestStorageError(t *testing.T) {
	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolation})
	assert.ErrorIs(t, storageError("insert", dup), storage.ErrDuplicateKey)

	assert.ErrorIs(t, storageError("get", pgx.ErrNoRows), storage.ErrNotFound)

	other := &pgconn.PgError{Code: "42P01"}
	err := storageError("insert decision record", other)
	assert.False(t, errors.Is(err, storage.ErrDuplicateKey))
	assert.EqualError(t, err, "insert decision record: "+other.Error())
}
