package memory

import (
	"context"
	"sort"
	"sync"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/storage"
)

// DecisionRecordStore is an in-memory implementation of storage.DecisionRecordStore.
type DecisionRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DecisionRecord // keyed by decision_id
}

// NewDecisionRecordStore creates a new in-memory decision record store.
func NewDecisionRecordStore() *DecisionRecordStore {
	return &DecisionRecordStore{
		data: make(map[string]*domain.DecisionRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionRecordStore) Insert(_ context.Context, r *domain.DecisionRecord) error {
	if r == nil || r.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.DecisionID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.DecisionID] = cloneRecord(r)
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *DecisionRecordStore) InsertBulk(_ context.Context, records []*domain.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.DecisionID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.DecisionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.DecisionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.DecisionID] = struct{}{}
	}

	for _, r := range records {
		s.data[r.DecisionID] = cloneRecord(r)
	}

	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *DecisionRecordStore) GetByID(_ context.Context, decisionID string) (*domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[decisionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(r), nil
}

// GetByStrategy retrieves all records of a strategy, ordered by timestamp ASC.
func (s *DecisionRecordStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DecisionRecord
	for _, r := range s.data {
		if r.StrategyID == strategyID {
			result = append(result, cloneRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].DecisionID < result[j].DecisionID
	})

	return result, nil
}

func cloneRecord(r *domain.DecisionRecord) *domain.DecisionRecord {
	c := *r
	c.Selection = append([]string(nil), r.Selection...)
	c.Instructions = append([]domain.Instruction(nil), r.Instructions...)
	return &c
}

var _ storage.DecisionRecordStore = (*DecisionRecordStore)(nil)
