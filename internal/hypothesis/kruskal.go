package hypothesis

import (
	"fmt"
	"log"
	"math"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// KruskalWallis tests whether the continuous values share a location
// parameter across the labeled groups (rank-based one-way ANOVA analogue),
// with the standard tie correction and a chi-squared p-value. Groups with
// fewer than 2 members are excluded with a warning and reported in the
// result rather than failing the test; fewer than 2 usable groups is an
// error.
func KruskalWallis(values []float64, labels []int) (*stats.OmnibusResult, error) {
	usable, excluded, err := groupValues(values, labels)
	if err != nil {
		return nil, err
	}

	pooled := make([]float64, 0, len(values))
	groupOf := make([]int, 0, len(values))
	groups := sortedGroupLabels(usable)
	for _, g := range groups {
		for _, v := range usable[g] {
			pooled = append(pooled, v)
			groupOf = append(groupOf, g)
		}
	}

	pooledRanks := ranks(pooled)
	rankSums := make(map[int]float64, len(groups))
	for i, r := range pooledRanks {
		rankSums[groupOf[i]] += r
	}

	n := float64(len(pooled))
	h := 0.0
	sizes := make(map[int]int, len(groups))
	for _, g := range groups {
		ng := float64(len(usable[g]))
		sizes[g] = len(usable[g])
		h += rankSums[g] * rankSums[g] / ng
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	// Tie correction.
	if c := tieCorrection(pooled); c > 0 {
		h /= 1 - c/(n*n*n-n)
	}

	df := len(groups) - 1
	chi := distuv.ChiSquared{K: float64(df)}
	p := chi.Survival(h)
	if p > 1 {
		p = 1
	}

	return &stats.OmnibusResult{
		Test:           stats.TestKruskalWallis,
		Statistic:      h,
		PValue:         p,
		DegreesFreedom: df,
		GroupSizes:     sizes,
		ExcludedGroups: excluded,
	}, nil
}

// groupValues splits values by label, drops groups below 2 members with a
// warning, and checks preconditions shared by the rank-based group tests.
func groupValues(values []float64, labels []int) (map[int][]float64, []int, error) {
	if len(values) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d values but %d labels",
			core.ErrModelMismatch, len(values), len(labels))
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("%w: no observations", core.ErrEmptyInput)
	}

	byGroup := make(map[int][]float64)
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, nil, fmt.Errorf("%w: observation %d", core.ErrNaNInput, i)
		}
		byGroup[labels[i]] = append(byGroup[labels[i]], v)
	}

	usable := make(map[int][]float64, len(byGroup))
	var excluded []int
	for g, vals := range byGroup {
		if len(vals) < 2 {
			excluded = append(excluded, g)
			continue
		}
		usable[g] = vals
	}
	sort.Ints(excluded)
	for _, g := range excluded {
		log.Printf("[Hypothesis] excluding group %d from rank test: %d member(s)", g, len(byGroup[g]))
	}

	if len(usable) < 2 {
		return nil, nil, fmt.Errorf("%w: %d usable groups after exclusion",
			core.ErrTooFewGroups, len(usable))
	}
	return usable, excluded, nil
}

func sortedGroupLabels(groups map[int][]float64) []int {
	out := make([]int, 0, len(groups))
	for g := range groups {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}
