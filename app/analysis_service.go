package app

import (
	"context"
	"fmt"
	"math"

	"synergyfit/adapters/report"
	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"
	"synergyfit/domain/stats"
	"synergyfit/internal"
	"synergyfit/internal/classify"
	"synergyfit/internal/hypothesis"
	"synergyfit/internal/metrics"
	"synergyfit/internal/selection"
	"synergyfit/ports"
)

// AnalysisOptions are the per-run parameters. SampleSize 0 analyzes every
// structurally unique model; a positive value draws a seeded subsample and
// fails if it exceeds the unique population.
type AnalysisOptions struct {
	Seed       int64 `json:"seed"`
	Classes    int   `json:"classes"`
	SampleSize int   `json:"sample_size"`
}

// AnalysisResult is the in-memory output of one full pipeline run.
type AnalysisResult struct {
	ID             core.AnalysisID      `json:"id"`
	Key            dataset.Key          `json:"key"`
	Options        AnalysisOptions      `json:"options"`
	PopulationSize int                  `json:"population_size"`
	UniqueModels   int                  `json:"unique_models"`
	SampledModels  int                  `json:"sampled_models"`
	Summary        dataset.Summary      `json:"summary"`
	Metrics        *dataset.MetricTable `json:"-"`
	Classification *stats.Classification `json:"classification,omitempty"`
	Suite          stats.TestSuite      `json:"suite"`
	ReportMarkdown string               `json:"-"`
}

// AnalysisService runs the fixed metric → classify → test pipeline against
// one screening dataset and persists every stage as an artifact.
type AnalysisService struct {
	analyses  ports.AnalysisRepository
	artifacts ports.ArtifactRepository
	logger    *internal.Logger
}

// NewAnalysisService creates the pipeline orchestrator
func NewAnalysisService(analyses ports.AnalysisRepository, artifacts ports.ArtifactRepository) *AnalysisService {
	return &AnalysisService{
		analyses:  analyses,
		artifacts: artifacts,
		logger:    internal.NewDefaultLogger(),
	}
}

// Run executes the pipeline. Data-consistency and precondition errors from
// the setup stages abort the run; degenerate statistical stages further down
// are skipped with a warning so one undersized class cannot sink the whole
// analysis.
func (s *AnalysisService) Run(ctx context.Context, data *ports.ScreeningData, opts AnalysisOptions) (*AnalysisResult, error) {
	record := &ports.AnalysisRecord{
		ID:         core.NewAnalysisID(),
		CellLine:   data.Key.CellLine,
		Population: data.Key.Population,
		Seed:       opts.Seed,
		Classes:    opts.Classes,
		SampleSize: opts.SampleSize,
		State:      ports.AnalysisStateRunning,
		CreatedAt:  core.Now(),
	}
	if err := s.analyses.CreateAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to register analysis: %w", err)
	}

	result, err := s.run(ctx, record.ID, data, opts)
	if err != nil {
		if stateErr := s.analyses.SetAnalysisState(ctx, record.ID, ports.AnalysisStateError, err.Error()); stateErr != nil {
			s.logger.Error("failed to record error state for %s: %v", record.ID, stateErr)
		}
		return nil, err
	}

	if err := s.analyses.SetAnalysisState(ctx, record.ID, ports.AnalysisStateComplete, ""); err != nil {
		return nil, fmt.Errorf("failed to complete analysis %s: %w", record.ID, err)
	}
	return result, nil
}

func (s *AnalysisService) run(ctx context.Context, id core.AnalysisID, data *ports.ScreeningData, opts AnalysisOptions) (*AnalysisResult, error) {
	unique := selection.DedupeBySignature(data.Models)
	s.logger.Info("%s: %d models, %d structurally unique", data.Key, len(data.Models), len(unique))

	analyzed := unique
	if opts.SampleSize > 0 {
		sampled, err := sampleModels(unique, opts.SampleSize, opts.Seed)
		if err != nil {
			return nil, err
		}
		analyzed = sampled
	}

	table, err := metrics.EvaluatePopulation(ctx, analyzed, data.Steady, data.Observed)
	if err != nil {
		return nil, fmt.Errorf("metric derivation failed: %w", err)
	}
	if err := s.save(ctx, id, core.ArtifactMetricTable, metricRows(table)); err != nil {
		return nil, err
	}

	ds := dataset.Dataset{Key: data.Key, ObservedCount: data.Observed.Len(), Metrics: table}
	summary := selection.Summarize(ds)
	if err := s.save(ctx, id, core.ArtifactDatasetSummary, summary); err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		ID:             id,
		Key:            data.Key,
		Options:        opts,
		PopulationSize: len(data.Models),
		UniqueModels:   len(unique),
		SampledModels:  len(analyzed),
		Summary:        summary,
		Metrics:        table,
	}

	s.runTests(ctx, id, result, opts)

	result.ReportMarkdown = report.Markdown(report.Data{
		Key:            result.Key,
		Seed:           opts.Seed,
		PopulationSize: result.PopulationSize,
		UniqueModels:   result.UniqueModels,
		SampledModels:  result.SampledModels,
		Summary:        &result.Summary,
		Classification: result.Classification,
		Suite:          &result.Suite,
	})
	if err := s.save(ctx, id, core.ArtifactAnalysisReport, result.ReportMarkdown); err != nil {
		return nil, err
	}

	return result, nil
}

// runTests executes the statistical battery. Each stage that fails a
// precondition is logged and skipped; its section stays nil in the suite.
func (s *AnalysisService) runTests(ctx context.Context, id core.AnalysisID, result *AnalysisResult, opts AnalysisOptions) {
	fitness := result.Metrics.FitnessVector()
	mcc := result.Metrics.MCCVector()
	tp := result.Metrics.TPVector()

	// Aligned pairs with a defined MCC; degenerate models stay in the
	// metric table but cannot enter paired tests.
	fitnessPaired, mccPaired := completePairs(fitness, mcc)

	if r, err := hypothesis.ShapiroFrancia(fitness, opts.Seed); err != nil {
		s.skip("fitness normality", err)
	} else {
		result.Suite.FitnessNormality = r
	}
	if r, err := hypothesis.ShapiroFrancia(mccPaired, opts.Seed); err != nil {
		s.skip("mcc normality", err)
	} else {
		result.Suite.MCCNormality = r
	}

	if r, err := hypothesis.Spearman(fitnessPaired, mccPaired); err != nil {
		s.skip("spearman", err)
	} else {
		result.Suite.Spearman = r
		s.saveBestEffort(ctx, id, core.ArtifactCorrelation, r)
	}
	if r, err := hypothesis.Kendall(fitnessPaired, mccPaired); err != nil {
		s.skip("kendall", err)
	} else {
		result.Suite.Kendall = r
		s.saveBestEffort(ctx, id, core.ArtifactCorrelation, r)
	}

	if r, err := hypothesis.McFaddenPseudoR2(toInts(tp), fitness); err != nil {
		s.skip("multinomial pseudo-R2", err)
	} else {
		result.Suite.PseudoR2 = r
	}

	classification, err := classify.Cluster1D(fitness, opts.Classes)
	if err != nil {
		s.skip("fitness classification", err)
		return
	}
	result.Classification = classification
	s.saveBestEffort(ctx, id, core.ArtifactClassification, classification)

	// MCC compared across ordered fitness classes; NaN-MCC models drop out
	// of the grouped vectors pairwise with their labels.
	mccGrouped, labelsGrouped := completeGroups(mcc, classification.Labels)

	if r, err := hypothesis.KruskalWallis(mccGrouped, labelsGrouped); err != nil {
		s.skip("kruskal-wallis", err)
	} else {
		result.Suite.Omnibus = r
		s.saveBestEffort(ctx, id, core.ArtifactOmnibus, r)
	}
	if r, err := hypothesis.PairwiseWilcoxon(mccGrouped, labelsGrouped); err != nil {
		s.skip("pairwise wilcoxon", err)
	} else {
		result.Suite.Pairwise = r
		s.saveBestEffort(ctx, id, core.ArtifactPairwiseMatrix, r)
	}
}

// CompareDatasets derives metrics for each candidate dataset and returns
// the cross-comparison summaries with the advisory ranking.
func (s *AnalysisService) CompareDatasets(ctx context.Context, candidates []*ports.ScreeningData) ([]dataset.Summary, []dataset.Ranking, error) {
	summaries := make([]dataset.Summary, 0, len(candidates))
	for _, data := range candidates {
		unique := selection.DedupeBySignature(data.Models)
		table, err := metrics.EvaluatePopulation(ctx, unique, data.Steady, data.Observed)
		if err != nil {
			return nil, nil, fmt.Errorf("metric derivation for %s failed: %w", data.Key, err)
		}
		ds := dataset.Dataset{Key: data.Key, ObservedCount: data.Observed.Len(), Metrics: table}
		summaries = append(summaries, selection.Summarize(ds))
	}
	return summaries, selection.RankDatasets(summaries), nil
}

func (s *AnalysisService) save(ctx context.Context, id core.AnalysisID, kind core.ArtifactKind, payload interface{}) error {
	if err := s.artifacts.SaveArtifact(ctx, id, core.NewArtifact(kind, payload)); err != nil {
		return fmt.Errorf("failed to save %s artifact: %w", kind, err)
	}
	return nil
}

// saveBestEffort persists a test artifact without aborting the run; the
// result is still in the returned suite either way.
func (s *AnalysisService) saveBestEffort(ctx context.Context, id core.AnalysisID, kind core.ArtifactKind, payload interface{}) {
	if err := s.save(ctx, id, kind, payload); err != nil {
		s.logger.Warn("%v", err)
	}
}

func (s *AnalysisService) skip(stage string, err error) {
	if core.IsPreconditionError(err) {
		s.logger.Warn("skipping %s: %v", stage, err)
		return
	}
	s.logger.Error("%s failed: %v", stage, err)
}

// sampleModels draws a seeded subsample of structurally unique models.
func sampleModels(unique []*model.Model, n int, seed int64) ([]*model.Model, error) {
	byID := make(map[core.ModelID]*model.Model, len(unique))
	ids := make([]core.ModelID, 0, len(unique))
	for _, m := range unique {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	sampledIDs, err := selection.Sample(ids, n, seed)
	if err != nil {
		return nil, err
	}

	sampled := make([]*model.Model, 0, n)
	for _, id := range sampledIDs {
		sampled = append(sampled, byID[id])
	}
	return sampled, nil
}

// completePairs drops index positions where either vector is NaN.
func completePairs(x, y []float64) ([]float64, []float64) {
	xc := make([]float64, 0, len(x))
	yc := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xc = append(xc, x[i])
		yc = append(yc, y[i])
	}
	return xc, yc
}

// completeGroups drops NaN values together with their group labels.
func completeGroups(values []float64, labels []int) ([]float64, []int) {
	vc := make([]float64, 0, len(values))
	lc := make([]int, 0, len(labels))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		vc = append(vc, values[i])
		lc = append(lc, labels[i])
	}
	return vc, lc
}

func toInts(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

// metricRows flattens the table for JSON persistence.
func metricRows(table *dataset.MetricTable) []dataset.MetricRecord {
	rows := make([]dataset.MetricRecord, 0, table.Len())
	for _, id := range table.ModelIDs() {
		rec, _ := table.Record(id)
		rows = append(rows, rec)
	}
	return rows
}
