package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain key types. These are names carried by the upstream simulation
// artifacts, not generated identifiers: every alignment between matrices
// happens by these keys rather than by position.
type (
	// ModelID identifies one boolean model across the prediction,
	// stable-state and link-operator matrices.
	ModelID string

	// NodeName identifies a network node in stable-state and
	// steady-state vectors.
	NodeName string

	// CombinationID identifies a tested drug combination (e.g. "PI-PD").
	CombinationID string

	// CellLine identifies the cell line a dataset was trained against.
	CellLine string

	// AnalysisID identifies one pipeline run.
	AnalysisID ID
)

func (m ModelID) String() string       { return string(m) }
func (n NodeName) String() string      { return string(n) }
func (c CombinationID) String() string { return string(c) }
func (c CellLine) String() string      { return string(c) }
func (a AnalysisID) String() string    { return ID(a).String() }

// NewAnalysisID creates a fresh analysis run identifier
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

// ParseModelID parses a string into ModelID
func ParseModelID(s string) (ModelID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("model ID cannot be empty")
	}
	return ModelID(s), nil
}

// ParseCellLine parses a string into CellLine
func ParseCellLine(s string) (CellLine, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("cell line cannot be empty")
	}
	return CellLine(s), nil
}

// Artifact represents any output of the pipeline
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactMetricTable is the per-model fitness/TP/MCC table for one dataset.
	ArtifactMetricTable ArtifactKind = "metric_table"
	// ArtifactDatasetSummary is the cross-dataset summary-statistic report.
	ArtifactDatasetSummary ArtifactKind = "dataset_summary"
	// ArtifactClassification is a classified score vector (labels, centers, sizes).
	ArtifactClassification ArtifactKind = "classification"
	// ArtifactCorrelation is a rank-correlation result (Spearman or Kendall).
	ArtifactCorrelation ArtifactKind = "correlation"
	// ArtifactOmnibus is a Kruskal-Wallis omnibus test result.
	ArtifactOmnibus ArtifactKind = "omnibus"
	// ArtifactPairwiseMatrix is the FDR-corrected pairwise rank-sum matrix.
	ArtifactPairwiseMatrix ArtifactKind = "pairwise_matrix"
	// ArtifactAnalysisReport is the rendered end-to-end report.
	ArtifactAnalysisReport ArtifactKind = "analysis_report"
)

// NewArtifact wraps a payload with identity and creation time
func NewArtifact(kind ArtifactKind, payload interface{}) Artifact {
	return Artifact{
		ID:        NewID(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: Now(),
	}
}
