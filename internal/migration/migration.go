package migration

import (
	"context"

	"goposterior/internal/errors"

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

// Statements returns the DDL in execution order. Every statement is idempotent.
func (r *MigrationRunner) Statements() []string {
	return []string{
		createRunsTable,
		createRunsCreatedIndex,
		createRunsFingerprintIndex,
	}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.exec(ctx, db, createRunsTable); err != nil {
		return errors.Wrap(err, "failed to create posterior_runs table")
	}

	if err := r.exec(ctx, db, createRunsCreatedIndex); err != nil {
		return errors.Wrap(err, "failed to create posterior_runs created_at index")
	}

	if err := r.exec(ctx, db, createRunsFingerprintIndex); err != nil {
		return errors.Wrap(err, "failed to create posterior_runs fingerprint index")
	}

	return nil
}

func (r *MigrationRunner) exec(ctx context.Context, db *sqlx.DB, stmt string) error {
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return errors.DatabaseError("migration statement failed", err)
	}
	return nil
}

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS posterior_runs (
		id UUID PRIMARY KEY,
		fingerprint VARCHAR(64) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		payload JSONB NOT NULL
	)`

const createRunsCreatedIndex = `
	CREATE INDEX IF NOT EXISTS idx_posterior_runs_created_at ON posterior_runs (created_at DESC)`

const createRunsFingerprintIndex = `
	CREATE INDEX IF NOT EXISTS idx_posterior_runs_fingerprint ON posterior_runs (fingerprint)`
