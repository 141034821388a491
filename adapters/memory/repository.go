package memory

import (
	"context"
	"sort"
	"sync"

	"synergyfit/domain/core"
	"synergyfit/ports"
)

// AnalysisRepository is an in-memory AnalysisRepository for CLI runs
// without a database and for tests.
type AnalysisRepository struct {
	mu      sync.Mutex
	records map[core.AnalysisID]*ports.AnalysisRecord
}

// NewAnalysisRepository creates an empty in-memory analysis store
func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{records: make(map[core.AnalysisID]*ports.AnalysisRecord)}
}

func (r *AnalysisRepository) CreateAnalysis(_ context.Context, record *ports.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *AnalysisRepository) GetAnalysis(_ context.Context, analysisID core.AnalysisID) (*ports.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[analysisID]
	if !ok {
		return nil, core.NewNotFoundError("analysis", analysisID.String())
	}
	copied := *record
	return &copied, nil
}

func (r *AnalysisRepository) ListAnalyses(_ context.Context, limit int) ([]*ports.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ports.AnalysisRecord, 0, len(r.records))
	for _, record := range r.records {
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnalysisRepository) SetAnalysisState(_ context.Context, analysisID core.AnalysisID, state, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[analysisID]
	if !ok {
		return core.NewNotFoundError("analysis", analysisID.String())
	}
	record.State = state
	record.Error = errorMsg
	if state == ports.AnalysisStateComplete || state == ports.AnalysisStateError {
		ts := core.Now()
		record.CompletedAt = &ts
	}
	return nil
}

// ArtifactRepository is an in-memory ArtifactRepository.
type ArtifactRepository struct {
	mu        sync.Mutex
	byID      map[core.ID]core.Artifact
	byOwner   map[core.AnalysisID][]core.ID
	ownership map[core.ID]core.AnalysisID
}

// NewArtifactRepository creates an empty in-memory artifact store
func NewArtifactRepository() *ArtifactRepository {
	return &ArtifactRepository{
		byID:      make(map[core.ID]core.Artifact),
		byOwner:   make(map[core.AnalysisID][]core.ID),
		ownership: make(map[core.ID]core.AnalysisID),
	}
}

func (r *ArtifactRepository) SaveArtifact(_ context.Context, analysisID core.AnalysisID, artifact core.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[artifact.ID] = artifact
	r.byOwner[analysisID] = append(r.byOwner[analysisID], artifact.ID)
	r.ownership[artifact.ID] = analysisID
	return nil
}

func (r *ArtifactRepository) GetArtifact(_ context.Context, artifactID core.ID) (*core.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	artifact, ok := r.byID[artifactID]
	if !ok {
		return nil, core.NewNotFoundError("artifact", artifactID.String())
	}
	return &artifact, nil
}

func (r *ArtifactRepository) ListArtifactsByAnalysis(_ context.Context, analysisID core.AnalysisID) ([]core.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byOwner[analysisID]
	out := make([]core.Artifact, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *ArtifactRepository) DeleteArtifact(_ context.Context, artifactID core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[artifactID]; !ok {
		return core.NewNotFoundError("artifact", artifactID.String())
	}
	owner := r.ownership[artifactID]
	delete(r.byID, artifactID)
	delete(r.ownership, artifactID)
	ids := r.byOwner[owner]
	for i, id := range ids {
		if id == artifactID {
			r.byOwner[owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
