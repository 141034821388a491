package ports

import (
	"context"

	"synergyfit/domain/core"
)

// ArtifactRepository defines the interface for persisted analysis outputs.
// Every stage of an analysis (metric table, classification, test results)
// is stored as one artifact row keyed by the owning analysis.
type ArtifactRepository interface {
	SaveArtifact(ctx context.Context, analysisID core.AnalysisID, artifact core.Artifact) error
	GetArtifact(ctx context.Context, artifactID core.ID) (*core.Artifact, error)
	ListArtifactsByAnalysis(ctx context.Context, analysisID core.AnalysisID) ([]core.Artifact, error)
	DeleteArtifact(ctx context.Context, artifactID core.ID) error
}
