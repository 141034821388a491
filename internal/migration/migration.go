package migration

import (
	"context"

	"synergyfit/internal/errors"

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

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analyses table")
	}

	if err := r.createArtifactsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create artifacts table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id UUID PRIMARY KEY,
			cell_line VARCHAR(100) NOT NULL,
			population VARCHAR(100) NOT NULL,
			seed BIGINT NOT NULL,
			classes INTEGER NOT NULL,
			sample_size INTEGER NOT NULL,
			state VARCHAR(50) NOT NULL DEFAULT 'pending',
			error_message TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			completed_at TIMESTAMP WITH TIME ZONE
		)
	`)
	return err
}

func (r *MigrationRunner) createArtifactsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS artifacts (
			id UUID PRIMARY KEY,
			analysis_id UUID NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			kind VARCHAR(50) NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_analyses_state ON analyses(state)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_cell_line ON analyses(cell_line, population)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_analysis ON artifacts(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(analysis_id, kind)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
