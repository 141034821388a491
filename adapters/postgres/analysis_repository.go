package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"synergyfit/domain/core"
	"synergyfit/ports"

	"github.com/jmoiron/sqlx"
)

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// CreateAnalysis inserts a new analysis header in the pending state
func (r *AnalysisRepositoryImpl) CreateAnalysis(ctx context.Context, record *ports.AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses (id, cell_line, population, seed, classes, sample_size, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ID, record.CellLine, record.Population, record.Seed, record.Classes,
		record.SampleSize, record.State, record.CreatedAt.Time())

	if err != nil {
		return fmt.Errorf("failed to create analysis %s: %w", record.ID, err)
	}
	return nil
}

// GetAnalysis retrieves an analysis header by ID
func (r *AnalysisRepositoryImpl) GetAnalysis(ctx context.Context, analysisID core.AnalysisID) (*ports.AnalysisRecord, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, cell_line, population, seed, classes, sample_size, state, error_message, created_at, completed_at
		FROM analyses
		WHERE id = $1
	`, analysisID)

	record, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("analysis", analysisID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", analysisID, err)
	}
	return record, nil
}

// ListAnalyses returns analysis headers newest first, optionally limited
func (r *AnalysisRepositoryImpl) ListAnalyses(ctx context.Context, limit int) ([]*ports.AnalysisRecord, error) {
	query := `
		SELECT id, cell_line, population, seed, classes, sample_size, state, error_message, created_at, completed_at
		FROM analyses
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*ports.AnalysisRecord
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SetAnalysisState updates the lifecycle state; terminal states also get a
// completion timestamp.
func (r *AnalysisRepositoryImpl) SetAnalysisState(ctx context.Context, analysisID core.AnalysisID, state, errorMsg string) error {
	var completedAt interface{}
	if state == ports.AnalysisStateComplete || state == ports.AnalysisStateError {
		completedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE analyses
		SET state = $2, error_message = $3, completed_at = $4
		WHERE id = $1
	`, analysisID, state, nullableString(errorMsg), completedAt)
	if err != nil {
		return fmt.Errorf("failed to update analysis %s state: %w", analysisID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewNotFoundError("analysis", analysisID.String())
	}
	return nil
}

func scanAnalysis(row rowScanner) (*ports.AnalysisRecord, error) {
	var (
		record      ports.AnalysisRecord
		errorMsg    sql.NullString
		createdAt   time.Time
		completedAt sql.NullTime
	)
	err := row.Scan(
		&record.ID,
		&record.CellLine,
		&record.Population,
		&record.Seed,
		&record.Classes,
		&record.SampleSize,
		&record.State,
		&errorMsg,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Error = errorMsg.String
	record.CreatedAt = core.NewTimestamp(createdAt)
	if completedAt.Valid {
		ts := core.NewTimestamp(completedAt.Time)
		record.CompletedAt = &ts
	}
	return &record, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
