// Package redis keeps live strategy state in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"regime-allocator/internal/storage"
)

const defaultNamespace = "allocator:selection"

// SelectionStore implements storage.SelectionStore on a Redis string per strategy.
// Entries have no TTL: the selection is valid until the next rebalance replaces it.
type SelectionStore struct {
	rdb       redis.Cmdable
	namespace string
}

// NewSelectionStore creates a SelectionStore. An empty namespace uses
// "allocator:selection".
func NewSelectionStore(rdb redis.Cmdable, namespace string) *SelectionStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &SelectionStore{rdb: rdb, namespace: namespace}
}

// Compile-time interface check.
var _ storage.SelectionStore = (*SelectionStore)(nil)

// Key returns the Redis key holding strategyID's selection.
func (s *SelectionStore) Key(strategyID string) string {
	return s.namespace + ":" + strategyID
}

// Save replaces the stored selection for strategyID.
func (s *SelectionStore) Save(ctx context.Context, strategyID string, selection []string) error {
	if strategyID == "" {
		return storage.ErrInvalidInput
	}
	if selection == nil {
		selection = []string{}
	}

	payload, err := json.Marshal(selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := s.rdb.Set(ctx, s.Key(strategyID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save selection %s: %w", strategyID, err)
	}
	return nil
}

// Load returns the stored selection. Returns ErrNotFound if nothing was saved.
func (s *SelectionStore) Load(ctx context.Context, strategyID string) ([]string, error) {
	b, err := s.rdb.Get(ctx, s.Key(strategyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load selection %s: %w", strategyID, err)
	}

	var selection []string
	if err := json.Unmarshal(b, &selection); err != nil {
		return nil, fmt.Errorf("decode selection %s: %w", strategyID, err)
	}
	return selection, nil
}
