package migrations

import (
	"context"
	"fmt"

	"regime-allocator/internal/storage/postgres"
)

// RunPostgresMigrations creates the decision_records table and its indexes.
// Each file runs as a single multi-statement Exec.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load("postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
