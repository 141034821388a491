package classify

import (
	"fmt"
	"math"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/stats"
)

// Cluster1D partitions a continuous score vector into k ordered classes by
// exact dynamic programming over the sorted values, minimizing total
// within-cluster squared deviation. Unlike iterative k-means it cannot land
// in a local optimum, which buys three guarantees the downstream tests rely
// on: clusters are contiguous in value order, centers are strictly
// increasing, and a value's label depends only on the value range it falls
// into. Labels are 1-based, class 1 holding the lowest scores.
//
// The DP runs on the distinct values weighted by multiplicity, so duplicate
// inputs always share a label. Requesting more classes than distinct values
// is an error, never a silently reduced k.
func Cluster1D(values []float64, k int) (*stats.Classification, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: nothing to cluster", core.ErrEmptyInput)
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: position %d", core.ErrNaNInput, i)
		}
	}
	if k < 1 {
		return nil, fmt.Errorf("class count must be >= 1, got %d", k)
	}

	distinct, weights := collapse(values)
	m := len(distinct)
	if k > m {
		return nil, core.NewTooManyClassesError(k, m)
	}

	boundaries := optimalBoundaries(distinct, weights, k)

	// Assign a label to each distinct value from the boundary list, then map
	// every input back through its value.
	labelOf := make(map[float64]int, m)
	centers := make([]float64, k)
	sizes := make([]int, k)
	start := 0
	for cluster := 0; cluster < k; cluster++ {
		end := boundaries[cluster] // inclusive index into distinct
		var weightSum float64
		var valueSum float64
		for i := start; i <= end; i++ {
			labelOf[distinct[i]] = cluster + 1
			w := float64(weights[i])
			weightSum += w
			valueSum += distinct[i] * w
			sizes[cluster] += weights[i]
		}
		centers[cluster] = valueSum / weightSum
		start = end + 1
	}

	labels := make([]int, len(values))
	for i, v := range values {
		labels[i] = labelOf[v]
	}

	return &stats.Classification{
		K:       k,
		Labels:  labels,
		Centers: centers,
		Sizes:   sizes,
	}, nil
}

// collapse returns the sorted distinct values and their multiplicities.
func collapse(values []float64) ([]float64, []int) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := make([]float64, 0, len(sorted))
	weights := make([]int, 0, len(sorted))
	for _, v := range sorted {
		if n := len(distinct); n > 0 && distinct[n-1] == v {
			weights[n-1]++
			continue
		}
		distinct = append(distinct, v)
		weights = append(weights, 1)
	}
	return distinct, weights
}

// wcss supplies O(1) within-cluster sum-of-squares queries over a contiguous
// range of weighted points, via prefix sums.
type wcss struct {
	w  []float64 // prefix of weights
	wx []float64 // prefix of weight*value
	ws []float64 // prefix of weight*value^2
}

func newWCSS(values []float64, weights []int) *wcss {
	n := len(values)
	c := &wcss{
		w:  make([]float64, n+1),
		wx: make([]float64, n+1),
		ws: make([]float64, n+1),
	}
	for i, v := range values {
		w := float64(weights[i])
		c.w[i+1] = c.w[i] + w
		c.wx[i+1] = c.wx[i] + w*v
		c.ws[i+1] = c.ws[i] + w*v*v
	}
	return c
}

// cost returns the weighted sum of squared deviations from the mean for the
// inclusive index range [j, i].
func (c *wcss) cost(j, i int) float64 {
	w := c.w[i+1] - c.w[j]
	wx := c.wx[i+1] - c.wx[j]
	ws := c.ws[i+1] - c.ws[j]
	cost := ws - wx*wx/w
	if cost < 0 {
		cost = 0 // floating point noise on constant ranges
	}
	return cost
}

// optimalBoundaries solves the DP and returns, for each cluster, the
// inclusive end index of its range over the distinct values. The recurrence
//
//	D[q][i] = min_{j<=i} D[q-1][j-1] + cost(j, i)
//
// has monotone optimal split points, so each row is filled by divide and
// conquer in O(m log m) instead of O(m^2).
func optimalBoundaries(values []float64, weights []int, k int) []int {
	m := len(values)
	costs := newWCSS(values, weights)

	prev := make([]float64, m)
	curr := make([]float64, m)
	// splits[q][i] is the start index of the last cluster in the optimal
	// q+1-cluster partition of values[0..i].
	splits := make([][]int, k)
	for q := range splits {
		splits[q] = make([]int, m)
	}

	for i := 0; i < m; i++ {
		prev[i] = costs.cost(0, i)
		splits[0][i] = 0
	}

	for q := 1; q < k; q++ {
		fillRow(costs, prev, curr, splits[q], q, 0, m-1, q, m-1)
		prev, curr = curr, prev
	}

	// Walk the split table back from the full range.
	boundaries := make([]int, k)
	end := m - 1
	for q := k - 1; q >= 0; q-- {
		boundaries[q] = end
		end = splits[q][end] - 1
	}
	return boundaries
}

// fillRow computes D[q][lo..hi] knowing the optimal split for each i lies in
// [optLo, optHi].
func fillRow(costs *wcss, prev, curr []float64, split []int, q, lo, hi, optLo, optHi int) {
	if lo > hi {
		return
	}
	mid := (lo + hi) / 2

	best := math.Inf(1)
	bestJ := optLo
	jMax := optHi
	if mid < jMax {
		jMax = mid
	}
	for j := optLo; j <= jMax; j++ {
		// Cluster q starts at j; earlier clusters cover [0, j-1].
		c := prev[j-1] + costs.cost(j, mid)
		if c < best {
			best = c
			bestJ = j
		}
	}
	curr[mid] = best
	split[mid] = bestJ

	fillRow(costs, prev, curr, split, q, lo, mid-1, optLo, bestJ)
	fillRow(costs, prev, curr, split, q, mid+1, hi, bestJ, optHi)
}
