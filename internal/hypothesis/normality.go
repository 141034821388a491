package hypothesis

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxNormalitySample is the practical ceiling for Shapiro-style normality
// tests; larger vectors are subsampled before testing.
const maxNormalitySample = 5000

// ShapiroFrancia runs a Shapiro-Wilk-style normality check: the squared
// correlation between the ordered sample and the expected normal order
// statistics (Blom scores), with Royston's 1993 p-value approximation.
// Vectors above the sample ceiling are reduced with a seeded uniform
// subsample so repeated runs are reproducible. The result only states
// whether normality is rejected at alpha=0.05; choosing rank-based tests
// downstream is fixed policy, not decided here.
func ShapiroFrancia(values []float64, seed int64) (*stats.NormalityResult, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 5 {
		return nil, fmt.Errorf("%w: normality test needs at least 5 values, got %d",
			core.ErrEmptyInput, len(clean))
	}

	sample := clean
	if len(clean) > maxNormalitySample {
		sample = subsample(clean, maxNormalitySample, seed)
	}
	n := len(sample)

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	// Blom scores: expected standard normal order statistics.
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = normal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}

	r := pearson(sorted, scores)
	w := r * r

	// Royston (1993) approximation for the Shapiro-Francia statistic.
	u := math.Log(float64(n))
	v := math.Log(u)
	mu := -1.2725 + 1.0521*(v-u)
	sigma := 1.0308 - 0.26758*(v+2/u)
	z := (math.Log(1-w) - mu) / sigma
	p := normal.Survival(z)

	return &stats.NormalityResult{
		Test:         stats.TestShapiroFrancia,
		Statistic:    w,
		PValue:       p,
		SampleSize:   n,
		RejectNormal: p < 0.05,
	}, nil
}

// subsample draws n values uniformly without replacement, deterministically
// for a given seed.
func subsample(values []float64, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(values))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = values[perm[i]]
	}
	return out
}
