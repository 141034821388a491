package report

import (
	"math"
	"strings"
	"testing"

	"synergyfit/domain/dataset"
	"synergyfit/domain/stats"

	"github.com/stretchr/testify/assert"
)

func sampleData() Data {
	return Data{
		Key:            dataset.Key{CellLine: "AGS", Population: "calibrated"},
		Seed:           42,
		PopulationSize: 3000,
		UniqueModels:   2800,
		SampledModels:  1000,
		Summary: &dataset.Summary{
			Key:    dataset.Key{CellLine: "AGS", Population: "calibrated"},
			Models: 1000,
			Fitness: dataset.VectorSummary{
				Min: 0.2, Max: 0.95, Range: 0.75, Mean: 0.6, Median: 0.62, Defined: 1000,
			},
			MCC: dataset.VectorSummary{
				Min: -0.1, Max: 0.7, Range: 0.8, Mean: 0.3, Median: 0.28, Defined: 940,
			},
			TP:        dataset.VectorSummary{Min: 0, Max: 4, Range: 4, Mean: 1.9, Defined: 1000},
			MaxTPRate: 0.8,
		},
		Classification: &stats.Classification{
			K: 3, Labels: []int{1, 2, 3},
			Centers: []float64{0.3, 0.6, 0.9},
			Sizes:   []int{300, 400, 300},
		},
		Suite: &stats.TestSuite{
			FitnessNormality: &stats.NormalityResult{
				Test: stats.TestShapiroFrancia, Statistic: 0.91, PValue: 0.0002,
				SampleSize: 1000, RejectNormal: true,
			},
			Spearman: &stats.CorrelationResult{
				Test: stats.TestSpearman, Coefficient: 0.41, PValue: 1e-8, SampleSize: 940,
			},
			Omnibus: &stats.OmnibusResult{
				Test: stats.TestKruskalWallis, Statistic: 55.2, PValue: 1e-12,
				DegreesFreedom: 2, GroupSizes: map[int]int{1: 280, 2: 390, 3: 270},
			},
			Pairwise: func() *stats.PairwiseMatrix {
				m := stats.NewPairwiseMatrix([]int{1, 2, 3})
				m.P[0][1], m.Q[0][1] = 0.001, 0.003
				m.P[0][2], m.Q[0][2] = 0.0001, 0.0003
				m.P[1][2], m.Q[1][2] = 0.04, 0.04
				return m
			}(),
		},
	}
}

func TestMarkdown_ContainsAllSections(t *testing.T) {
	md := Markdown(sampleData())

	assert.Contains(t, md, "# Synergy analysis: AGS/calibrated")
	assert.Contains(t, md, "Seed 42")
	assert.Contains(t, md, "## Metric summary")
	assert.Contains(t, md, "## Fitness classes (k=3)")
	assert.Contains(t, md, "## Hypothesis tests")
	assert.Contains(t, md, "normality rejected")
	assert.Contains(t, md, "Spearman rho")
	assert.Contains(t, md, "Kruskal-Wallis H")
	assert.Contains(t, md, "### Pairwise rank-sum tests")
	assert.Contains(t, md, "| 1 vs 2 |")
}

func TestMarkdown_RendersNaNAsNA(t *testing.T) {
	d := sampleData()
	d.Summary.MaxTPRate = math.NaN()
	d.Suite.Pairwise = func() *stats.PairwiseMatrix {
		m := stats.NewPairwiseMatrix([]int{1, 2})
		// 1 vs 2 untestable, stays NaN
		return m
	}()

	md := Markdown(d)
	assert.Contains(t, md, "gold standard: NA")
	assert.Contains(t, md, "| 1 vs 2 | NA | NA |")
}

func TestMarkdown_SkipsNilSections(t *testing.T) {
	d := Data{
		Key:            dataset.Key{CellLine: "SW620", Population: "random"},
		PopulationSize: 10,
		UniqueModels:   10,
		SampledModels:  10,
	}
	md := Markdown(d)
	assert.NotContains(t, md, "## Metric summary")
	assert.NotContains(t, md, "## Hypothesis tests")
}

func TestRenderHTML_ProducesTables(t *testing.T) {
	html := string(RenderHTML(Markdown(sampleData())))

	assert.True(t, strings.Contains(html, "<h1"), "expected an h1 heading")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "AGS/calibrated")
}
