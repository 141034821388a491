package ports

import (
	"context"

	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
)

// Analysis lifecycle states.
const (
	AnalysisStatePending  = "pending"
	AnalysisStateRunning  = "running"
	AnalysisStateComplete = "complete"
	AnalysisStateError    = "error"
)

// AnalysisRecord is the persisted header of one analysis run: the dataset
// it targets, the parameters it ran with, and its lifecycle state.
type AnalysisRecord struct {
	ID          core.AnalysisID `db:"id" json:"id"`
	CellLine    core.CellLine   `db:"cell_line" json:"cell_line"`
	Population  string          `db:"population" json:"population"`
	Seed        int64           `db:"seed" json:"seed"`
	Classes     int             `db:"classes" json:"classes"`
	SampleSize  int             `db:"sample_size" json:"sample_size"`
	State       string          `db:"state" json:"state"`
	Error       string          `db:"error_message" json:"error,omitempty"`
	CreatedAt   core.Timestamp  `db:"created_at" json:"created_at"`
	CompletedAt *core.Timestamp `db:"completed_at" json:"completed_at,omitempty"`
}

// Key returns the dataset key this analysis targets.
func (r *AnalysisRecord) Key() dataset.Key {
	return dataset.Key{CellLine: r.CellLine, Population: r.Population}
}

// AnalysisRepository defines the interface for analysis header storage.
type AnalysisRepository interface {
	CreateAnalysis(ctx context.Context, record *AnalysisRecord) error
	GetAnalysis(ctx context.Context, analysisID core.AnalysisID) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error)
	SetAnalysisState(ctx context.Context, analysisID core.AnalysisID, state, errorMsg string) error
}
