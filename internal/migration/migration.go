package migration

import (
	"context"

	"gochurn/internal/errors"

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

// Run executes all database migrations in the correct order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createModelsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create churn_models table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createModelsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS churn_models (
			id UUID PRIMARY KEY,
			schema_fingerprint VARCHAR(64) NOT NULL,
			dataset_fingerprint VARCHAR(64),
			dataset_source TEXT,
			rows_used INTEGER NOT NULL DEFAULT 0,
			concordance DOUBLE PRECISION,
			code_version VARCHAR(64),
			is_active BOOLEAN NOT NULL DEFAULT false,
			manifest JSONB NOT NULL,
			artifact JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_churn_models_created_at ON churn_models(created_at DESC);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_churn_models_single_active ON churn_models(is_active) WHERE is_active;
	`)
	return err
}
