package migration

import (
	"context"

	"infodyn/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every statement
// is idempotent, so Run is safe on an already migrated database.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createResultsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create ais_results table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

func (r *MigrationRunner) createResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ais_results (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			estimator VARCHAR(32) NOT NULL,
			history_k INTEGER NOT NULL CHECK (history_k >= 1),
			tau INTEGER NOT NULL CHECK (tau >= 1),
			dimensions INTEGER NOT NULL DEFAULT 1,
			observations INTEGER NOT NULL DEFAULT 0,
			value_nats DOUBLE PRECISION NOT NULL,
			value_bits DOUBLE PRECISION NOT NULL,
			significance_method VARCHAR(32) NOT NULL DEFAULT 'none',
			p_value DOUBLE PRECISION CHECK (p_value >= 0 AND p_value <= 1),
			degrees_of_freedom INTEGER,
			permutations INTEGER,
			alpha DOUBLE PRECISION NOT NULL DEFAULT 0.05,
			significant BOOLEAN NOT NULL DEFAULT false,
			fingerprint VARCHAR(64) NOT NULL DEFAULT '',
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_ais_results_created_at ON ais_results(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ais_results_fingerprint ON ais_results(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_ais_results_source ON ais_results(source)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
