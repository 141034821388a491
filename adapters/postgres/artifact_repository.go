package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"synergyfit/domain/core"
	"synergyfit/ports"

	"github.com/jmoiron/sqlx"
)

// ArtifactRepositoryImpl implements ArtifactRepository for PostgreSQL
type ArtifactRepositoryImpl struct {
	db *sqlx.DB
}

// NewArtifactRepository creates a new PostgreSQL artifact repository
func NewArtifactRepository(db *sqlx.DB) ports.ArtifactRepository {
	return &ArtifactRepositoryImpl{db: db}
}

// SaveArtifact persists one pipeline output under its owning analysis.
// Payloads are stored as JSONB; the payload structs are the domain result
// types, so a round-trip through this table is lossless.
func (r *ArtifactRepositoryImpl) SaveArtifact(ctx context.Context, analysisID core.AnalysisID, artifact core.Artifact) error {
	payload, err := json.Marshal(artifact.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", artifact.Kind, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, analysis_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, artifact.ID, analysisID, artifact.Kind, payload, artifact.CreatedAt.Time())

	if err != nil {
		return fmt.Errorf("failed to save %s artifact: %w", artifact.Kind, err)
	}
	return nil
}

// GetArtifact retrieves a single artifact by ID. The payload comes back as
// json.RawMessage; callers unmarshal into the result type the kind implies.
func (r *ArtifactRepositoryImpl) GetArtifact(ctx context.Context, artifactID core.ID) (*core.Artifact, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, kind, payload, created_at
		FROM artifacts
		WHERE id = $1
	`, artifactID)

	artifact, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("artifact", artifactID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact %s: %w", artifactID, err)
	}
	return artifact, nil
}

// ListArtifactsByAnalysis returns all artifacts of one analysis run in
// creation order.
func (r *ArtifactRepositoryImpl) ListArtifactsByAnalysis(ctx context.Context, analysisID core.AnalysisID) ([]core.Artifact, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, kind, payload, created_at
		FROM artifacts
		WHERE analysis_id = $1
		ORDER BY created_at ASC
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for analysis %s: %w", analysisID, err)
	}
	defer rows.Close()

	var artifacts []core.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		artifacts = append(artifacts, *artifact)
	}
	return artifacts, rows.Err()
}

// DeleteArtifact removes a single artifact
func (r *ArtifactRepositoryImpl) DeleteArtifact(ctx context.Context, artifactID core.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = $1`, artifactID)
	if err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", artifactID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewNotFoundError("artifact", artifactID.String())
	}
	return nil
}

// rowScanner covers both *sqlx.Row and *sqlx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(row rowScanner) (*core.Artifact, error) {
	var (
		id        string
		kind      string
		payload   []byte
		createdAt sql.NullTime
	)
	if err := row.Scan(&id, &kind, &payload, &createdAt); err != nil {
		return nil, err
	}

	artifact := &core.Artifact{
		ID:      core.ID(id),
		Kind:    core.ArtifactKind(kind),
		Payload: json.RawMessage(payload),
	}
	if createdAt.Valid {
		artifact.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	return artifact, nil
}
