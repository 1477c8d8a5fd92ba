package memory

import (
	"context"
	"sync"

	"regime-allocator/internal/storage"
)

// SelectionStore is an in-memory implementation of storage.SelectionStore.
type SelectionStore struct {
	mu   sync.RWMutex
	data map[string][]string // keyed by strategy_id
}

// NewSelectionStore creates a new in-memory selection store.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{data: make(map[string][]string)}
}

// Save replaces the stored selection for strategyID.
func (s *SelectionStore) Save(_ context.Context, strategyID string, selection []string) error {
	if strategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[strategyID] = append([]string{}, selection...)
	return nil
}

// Load returns the stored selection. Returns ErrNotFound if nothing was saved.
func (s *SelectionStore) Load(_ context.Context, strategyID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, exists := s.data[strategyID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return append([]string{}, sel...), nil
}

var _ storage.SelectionStore = (*SelectionStore)(nil)
