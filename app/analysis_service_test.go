package app

import (
	"context"
	"fmt"
	"testing"

	"synergyfit/adapters/memory"
	"synergyfit/domain/core"
	"synergyfit/domain/dataset"
	"synergyfit/domain/model"
	"synergyfit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticScreening builds a population with varied stable states and
// predictions so every pipeline stage has signal to work with.
func syntheticScreening(t *testing.T, n int) *ports.ScreeningData {
	t.Helper()

	nodes := []core.NodeName{"A", "B", "C"}
	combos := []core.CombinationID{"c0", "c1", "c2", "c3", "c4", "c5"}
	observed := model.NewSynergySet("c0", "c1", "c2")

	steady := model.NewSteadyState("AGS", map[core.NodeName]model.Tristate{
		"A": model.Active, "B": model.Inactive, "C": model.Active,
	})

	models := make([]*model.Model, 0, n)
	for i := 0; i < n; i++ {
		vector := make(map[core.NodeName]model.Tristate, len(nodes))
		for b, node := range nodes {
			if i>>(b%3)&1 == 1 {
				vector[node] = model.Active
			} else {
				vector[node] = model.Inactive
			}
		}
		stable, err := model.NewStableState(vector)
		require.NoError(t, err)

		// Four prediction profiles with TP counts spread over {0,1}, so
		// the discrete-response diagnostic has more than one level.
		preds := make(model.Predictions, len(combos))
		for j, combo := range combos {
			if (i+j)%4 == 0 {
				preds[combo] = model.Active
			} else {
				preds[combo] = model.Inactive
			}
		}

		m, err := model.NewModel(
			core.ModelID(fmt.Sprintf("m%03d", i)),
			[]string{fmt.Sprintf("op%d", i)}, // unique signatures
			[]model.StableState{stable},
			preds,
		)
		require.NoError(t, err)
		models = append(models, m)
	}

	return &ports.ScreeningData{
		Key:      dataset.Key{CellLine: "AGS", Population: "calibrated"},
		Models:   models,
		Steady:   steady,
		Observed: observed,
	}
}

func TestAnalysisService_RunFullPipeline(t *testing.T) {
	analyses := memory.NewAnalysisRepository()
	artifacts := memory.NewArtifactRepository()
	service := NewAnalysisService(analyses, artifacts)

	data := syntheticScreening(t, 60)
	result, err := service.Run(context.Background(), data, AnalysisOptions{
		Seed:    42,
		Classes: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 60, result.PopulationSize)
	assert.Equal(t, 60, result.UniqueModels, "unique operator sequences should survive dedupe")
	assert.Equal(t, 60, result.SampledModels)
	assert.Equal(t, 60, result.Metrics.Len())

	require.NotNil(t, result.Classification)
	assert.Equal(t, 3, result.Classification.K)
	assert.Len(t, result.Classification.Labels, 60)

	assert.NotNil(t, result.Suite.FitnessNormality)
	assert.NotNil(t, result.Suite.Spearman)
	assert.NotNil(t, result.Suite.Kendall)
	assert.NotNil(t, result.Suite.PseudoR2)
	assert.NotEmpty(t, result.ReportMarkdown)

	record, err := analyses.GetAnalysis(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, ports.AnalysisStateComplete, record.State)

	saved, err := artifacts.ListArtifactsByAnalysis(context.Background(), result.ID)
	require.NoError(t, err)
	kinds := make(map[core.ArtifactKind]bool)
	for _, artifact := range saved {
		kinds[artifact.Kind] = true
	}
	assert.True(t, kinds[core.ArtifactMetricTable])
	assert.True(t, kinds[core.ArtifactDatasetSummary])
	assert.True(t, kinds[core.ArtifactClassification])
	assert.True(t, kinds[core.ArtifactAnalysisReport])
}

func TestAnalysisService_SampledRunIsDeterministic(t *testing.T) {
	data := syntheticScreening(t, 80)
	opts := AnalysisOptions{Seed: 7, Classes: 3, SampleSize: 50}

	first, err := NewAnalysisService(memory.NewAnalysisRepository(), memory.NewArtifactRepository()).
		Run(context.Background(), data, opts)
	require.NoError(t, err)
	second, err := NewAnalysisService(memory.NewAnalysisRepository(), memory.NewArtifactRepository()).
		Run(context.Background(), data, opts)
	require.NoError(t, err)

	assert.Equal(t, 50, first.SampledModels)
	assert.Equal(t, first.Metrics.ModelIDs(), second.Metrics.ModelIDs())
	if first.Suite.Spearman != nil && second.Suite.Spearman != nil {
		assert.Equal(t, first.Suite.Spearman.Coefficient, second.Suite.Spearman.Coefficient)
	}
}

func TestAnalysisService_OversizedSampleFails(t *testing.T) {
	analyses := memory.NewAnalysisRepository()
	service := NewAnalysisService(analyses, memory.NewArtifactRepository())

	data := syntheticScreening(t, 20)
	_, err := service.Run(context.Background(), data, AnalysisOptions{
		Seed: 1, Classes: 2, SampleSize: 100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSampleExceedsPopulation)

	records, err := analyses.ListAnalyses(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ports.AnalysisStateError, records[0].State)
	assert.NotEmpty(t, records[0].Error)
}

func TestAnalysisService_CompareDatasets(t *testing.T) {
	service := NewAnalysisService(memory.NewAnalysisRepository(), memory.NewArtifactRepository())

	first := syntheticScreening(t, 40)
	second := syntheticScreening(t, 40)
	second.Key = dataset.Key{CellLine: "SW620", Population: "calibrated"}

	summaries, rankings, err := service.CompareDatasets(context.Background(),
		[]*ports.ScreeningData{first, second})
	require.NoError(t, err)

	assert.Len(t, summaries, 2)
	require.Len(t, rankings, 2)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 2, rankings[1].Rank)
}
