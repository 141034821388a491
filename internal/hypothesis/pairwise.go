package hypothesis

import (
	"math"
	"sort"

	"synergyfit/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// PairwiseWilcoxon runs a Mann-Whitney rank-sum test for every group pair
// and corrects the p-values with Benjamini-Hochberg across the full pairwise
// family, not per row. The returned matrix has one triangle populated and
// NaN on the diagonal and unpopulated cells, preserving shape for all group
// pairs regardless of which were testable. Groups below 2 members are
// excluded the same way KruskalWallis excludes them.
func PairwiseWilcoxon(values []float64, labels []int) (*stats.PairwiseMatrix, error) {
	usable, _, err := groupValues(values, labels)
	if err != nil {
		return nil, err
	}

	groups := sortedGroupLabels(usable)
	matrix := stats.NewPairwiseMatrix(groups)

	type cell struct {
		i, j int
		p    float64
	}
	cells := make([]cell, 0, len(groups)*(len(groups)-1)/2)
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			p := mannWhitney(usable[groups[i]], usable[groups[j]])
			matrix.P[i][j] = p
			cells = append(cells, cell{i: i, j: j, p: p})
		}
	}

	// Benjamini-Hochberg step-up over the whole family: walk ranks from the
	// largest p down, carrying the running minimum so q-values stay monotone.
	m := len(cells)
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return cells[order[a]].p < cells[order[b]].p })

	qByCell := make([]float64, m)
	running := 1.0
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		q := cells[idx].p * float64(m) / float64(rank)
		if q > running {
			q = running
		}
		running = q
		qByCell[idx] = q
	}
	for i, c := range cells {
		matrix.Q[c.i][c.j] = qByCell[i]
	}

	return matrix, nil
}

// mannWhitney returns the two-sided p-value of the rank-sum test between
// two samples, using the normal approximation with tie and continuity
// corrections.
func mannWhitney(a, b []float64) float64 {
	n1 := float64(len(a))
	n2 := float64(len(b))
	n := n1 + n2

	pooled := make([]float64, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	pooledRanks := ranks(pooled)

	var rankSumA float64
	for i := range a {
		rankSumA += pooledRanks[i]
	}
	u := rankSumA - n1*(n1+1)/2

	mean := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((n + 1) - tieCorrection(pooled)/(n*(n-1)))
	if variance <= 0 {
		// All pooled values identical: no evidence either way.
		return 1.0
	}

	// Continuity correction toward the mean.
	diff := math.Abs(u-mean) - 0.5
	if diff < 0 {
		diff = 0
	}
	z := diff / math.Sqrt(variance)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.Survival(z)
	if p > 1 {
		p = 1
	}
	return p
}
