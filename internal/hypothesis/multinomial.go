package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/stats"

	mstats "github.com/montanaflynn/stats"
)

// multinomial fit schedule. Fixed so identical inputs always reach the same
// coefficients; the fit is a goodness-of-fit diagnostic, not a deployed
// predictor, so a plain gradient ascent with enough iterations is adequate.
const (
	multinomialIterations = 4000
	multinomialLearnRate  = 0.1
)

// McFaddenPseudoR2 fits a multinomial log-linear model of a discrete
// response (e.g. TP counts) on a continuous predictor and reports McFadden's
// pseudo-R-squared: 1 - llFull/llNull, where llNull is the intercept-only
// log-likelihood. It measures correlation strength between a discrete and a
// continuous variable; levels are taken from the observed response values.
func McFaddenPseudoR2(response []int, predictor []float64) (*stats.PseudoR2Result, error) {
	if len(response) != len(predictor) {
		return nil, fmt.Errorf("%w: %d responses but %d predictors",
			core.ErrModelMismatch, len(response), len(predictor))
	}
	if len(response) == 0 {
		return nil, fmt.Errorf("%w: no observations", core.ErrEmptyInput)
	}
	for i, v := range predictor {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: predictor %d", core.ErrNaNInput, i)
		}
	}

	levels, levelIndex := responseLevels(response)
	if len(levels) < 2 {
		return nil, fmt.Errorf("%w: response has %d level(s)", core.ErrTooFewGroups, len(levels))
	}

	n := len(response)
	classes := make([]int, n)
	counts := make([]int, len(levels))
	for i, r := range response {
		classes[i] = levelIndex[r]
		counts[classes[i]]++
	}

	// Intercept-only log-likelihood has a closed form from the level
	// frequencies.
	llNull := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		llNull += float64(c) * math.Log(p)
	}

	// Standardize the predictor for conditioning; the likelihood, and hence
	// the ratio, is invariant to this reparameterization.
	mean, _ := mstats.Mean(predictor)
	sd, _ := mstats.StandardDeviation(predictor)
	x := make([]float64, n)
	for i, v := range predictor {
		if sd > 0 {
			x[i] = (v - mean) / sd
		}
	}

	llFull := fitMultinomial(classes, x, len(levels))

	// Guard against a degenerate null (single level already rejected above).
	if llNull == 0 {
		return nil, fmt.Errorf("%w: null model log-likelihood is zero", core.ErrTooFewGroups)
	}

	return &stats.PseudoR2Result{
		Test:       stats.TestMultinomial,
		McFaddenR2: 1 - llFull/llNull,
		LogLikFull: llFull,
		LogLikNull: llNull,
		Levels:     len(levels),
		SampleSize: n,
	}, nil
}

// responseLevels maps the observed discrete values to dense level indices,
// ordered by value for determinism.
func responseLevels(response []int) ([]int, map[int]int) {
	seen := make(map[int]struct{})
	for _, r := range response {
		seen[r] = struct{}{}
	}
	levels := make([]int, 0, len(seen))
	for r := range seen {
		levels = append(levels, r)
	}
	sort.Ints(levels)

	index := make(map[int]int, len(levels))
	for i, r := range levels {
		index[r] = i
	}
	return levels, index
}

// fitMultinomial maximizes the softmax log-likelihood of class membership
// given one standardized predictor, with the first level as reference, and
// returns the achieved log-likelihood. Full-batch gradient ascent with a
// fixed schedule keeps the fit deterministic.
func fitMultinomial(classes []int, x []float64, levels int) float64 {
	n := len(classes)
	free := levels - 1 // reference level has fixed zero coefficients

	intercepts := make([]float64, free)
	slopes := make([]float64, free)
	probs := make([]float64, levels)

	gradI := make([]float64, free)
	gradS := make([]float64, free)

	step := multinomialLearnRate / float64(n)
	for iter := 0; iter < multinomialIterations; iter++ {
		for l := 0; l < free; l++ {
			gradI[l] = 0
			gradS[l] = 0
		}

		for i := 0; i < n; i++ {
			softmaxInto(probs, intercepts, slopes, x[i])
			for l := 0; l < free; l++ {
				indicator := 0.0
				if classes[i] == l+1 {
					indicator = 1.0
				}
				diff := indicator - probs[l+1]
				gradI[l] += diff
				gradS[l] += diff * x[i]
			}
		}

		for l := 0; l < free; l++ {
			intercepts[l] += step * gradI[l]
			slopes[l] += step * gradS[l]
		}
	}

	ll := 0.0
	for i := 0; i < n; i++ {
		softmaxInto(probs, intercepts, slopes, x[i])
		p := probs[classes[i]]
		if p < 1e-300 {
			p = 1e-300
		}
		ll += math.Log(p)
	}
	return ll
}

// softmaxInto fills probs with class probabilities for one observation.
// probs[0] is the reference level.
func softmaxInto(probs, intercepts, slopes []float64, x float64) {
	maxLogit := 0.0 // reference logit
	for l := range intercepts {
		logit := intercepts[l] + slopes[l]*x
		if logit > maxLogit {
			maxLogit = logit
		}
	}

	sum := math.Exp(-maxLogit)
	probs[0] = sum
	for l := range intercepts {
		e := math.Exp(intercepts[l] + slopes[l]*x - maxLogit)
		probs[l+1] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
}
