package storage

import "errors"

var (
	// ErrNotFound means no bar, decision record or selection matched the key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a bar (symbol, timestamp_ms) or a decision_id
	// was already written. Stored rows are never overwritten.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput means a record is missing its key fields.
	ErrInvalidInput = errors.New("invalid input")
)
