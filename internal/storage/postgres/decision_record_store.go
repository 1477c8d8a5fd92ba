package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"regime-allocator/internal/domain"
	"regime-allocator/internal/observability"
	"regime-allocator/internal/storage"
)

// DecisionRecordStore implements storage.DecisionRecordStore using PostgreSQL.
type DecisionRecordStore struct {
	pool *Pool
}

// NewDecisionRecordStore creates a new DecisionRecordStore.
func NewDecisionRecordStore(pool *Pool) *DecisionRecordStore {
	return &DecisionRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionRecordStore = (*DecisionRecordStore)(nil)

const insertDecisionRecord = `
	INSERT INTO decision_records (
		decision_id, strategy_id, variant, timestamp_ms,
		reason, metrics, selection, instructions
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8
	)
`

const selectDecisionRecord = `
	SELECT
		decision_id, strategy_id, variant, timestamp_ms,
		reason, metrics, selection, instructions
	FROM decision_records
`

// Insert adds a new record. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionRecordStore) Insert(ctx context.Context, r *domain.DecisionRecord) error {
	defer observability.ObserveStorageQuery("postgres", "insert_decision_record", time.Now())

	args, err := recordArgs(r)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, insertDecisionRecord, args...); err != nil {
		return storageError("insert decision record", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *DecisionRecordStore) InsertBulk(ctx context.Context, records []*domain.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}
	defer observability.ObserveStorageQuery("postgres", "insert_decision_records", time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		args, err := recordArgs(r)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertDecisionRecord, args...); err != nil {
			return storageError("insert decision record in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *DecisionRecordStore) GetByID(ctx context.Context, decisionID string) (*domain.DecisionRecord, error) {
	defer observability.ObserveStorageQuery("postgres", "get_decision_record", time.Now())

	row := s.pool.QueryRow(ctx, selectDecisionRecord+` WHERE decision_id = $1`, decisionID)
	r, err := scanDecisionRecord(row)
	if err != nil {
		return nil, storageError("get decision record by id", err)
	}
	return r, nil
}

// GetByStrategy retrieves all records of a strategy, ordered by timestamp ASC.
func (s *DecisionRecordStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.DecisionRecord, error) {
	defer observability.ObserveStorageQuery("postgres", "get_decision_records", time.Now())

	rows, err := s.pool.Query(ctx, selectDecisionRecord+`
		WHERE strategy_id = $1
		ORDER BY timestamp_ms ASC, decision_id ASC
	`, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get decision records by strategy: %w", err)
	}
	defer rows.Close()

	var records []*domain.DecisionRecord
	for rows.Next() {
		r, err := scanDecisionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision record row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision record rows: %w", err)
	}

	return records, nil
}

// recordArgs flattens a record into insert arguments.
// Metrics and instructions are stored as JSONB.
func recordArgs(r *domain.DecisionRecord) ([]any, error) {
	if r == nil || r.DecisionID == "" {
		return nil, storage.ErrInvalidInput
	}

	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	instructions := r.Instructions
	if instructions == nil {
		instructions = []domain.Instruction{}
	}
	instr, err := json.Marshal(instructions)
	if err != nil {
		return nil, fmt.Errorf("marshal instructions: %w", err)
	}
	selection := r.Selection
	if selection == nil {
		selection = []string{}
	}

	return []any{
		r.DecisionID, r.StrategyID, string(r.Variant), r.TimestampMs,
		string(r.Reason), metrics, selection, instr,
	}, nil
}

// scanDecisionRecord scans a single row into a DecisionRecord.
func scanDecisionRecord(row pgx.Row) (*domain.DecisionRecord, error) {
	var (
		r               domain.DecisionRecord
		variant, reason string
		metrics, instr  []byte
		selection       []string
	)

	err := row.Scan(
		&r.DecisionID, &r.StrategyID, &variant, &r.TimestampMs,
		&reason, &metrics, &selection, &instr,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(instr, &r.Instructions); err != nil {
		return nil, fmt.Errorf("unmarshal instructions: %w", err)
	}
	r.Variant = domain.Variant(variant)
	r.Reason = domain.ReasonCode(reason)
	r.Selection = selection

	return &r, nil
}
