package hypothesis

import (
	"errors"
	"math"
	"testing"

	"synergyfit/domain/core"
)

// threeSeparatedGroups builds 30 observations per group around 0.2, 0.5 and
// 0.9 with small within-group spread.
func threeSeparatedGroups() (values []float64, labels []int) {
	centers := []float64{0.2, 0.5, 0.9}
	for g, center := range centers {
		for i := 0; i < 30; i++ {
			values = append(values, center+0.001*float64(i))
			labels = append(labels, g+1)
		}
	}
	return values, labels
}

// TestKruskalWallis_SeparatedGroups covers the end-to-end scenario: clearly
// separated group medians yield p < 0.001.
func TestKruskalWallis_SeparatedGroups(t *testing.T) {
	values, labels := threeSeparatedGroups()

	res, err := KruskalWallis(values, labels)
	if err != nil {
		t.Fatalf("KruskalWallis: %v", err)
	}
	if res.PValue >= 0.001 {
		t.Errorf("expected p < 0.001 for separated groups, got %g", res.PValue)
	}
	if res.DegreesFreedom != 2 {
		t.Errorf("expected df 2, got %d", res.DegreesFreedom)
	}
	for g, size := range res.GroupSizes {
		if size != 30 {
			t.Errorf("group %d: expected size 30, got %d", g, size)
		}
	}
}

func TestKruskalWallis_IdenticalGroupsNotSignificant(t *testing.T) {
	var values []float64
	var labels []int
	for g := 1; g <= 3; g++ {
		for i := 0; i < 20; i++ {
			values = append(values, float64(i))
			labels = append(labels, g)
		}
	}

	res, err := KruskalWallis(values, labels)
	if err != nil {
		t.Fatalf("KruskalWallis: %v", err)
	}
	if res.PValue < 0.9 {
		t.Errorf("identical groups should give p near 1, got %f", res.PValue)
	}
}

func TestKruskalWallis_SingletonGroupExcluded(t *testing.T) {
	values, labels := threeSeparatedGroups()
	// Append a one-member group; it is a warning, not a failure.
	values = append(values, 5.0)
	labels = append(labels, 99)

	res, err := KruskalWallis(values, labels)
	if err != nil {
		t.Fatalf("KruskalWallis: %v", err)
	}
	if len(res.ExcludedGroups) != 1 || res.ExcludedGroups[0] != 99 {
		t.Errorf("expected group 99 excluded, got %v", res.ExcludedGroups)
	}
	if _, ok := res.GroupSizes[99]; ok {
		t.Error("excluded group must not appear in group sizes")
	}
}

func TestKruskalWallis_TooFewGroupsFails(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	labels := []int{1, 1, 1, 1}

	_, err := KruskalWallis(values, labels)
	if !errors.Is(err, core.ErrTooFewGroups) {
		t.Fatalf("expected ErrTooFewGroups, got %v", err)
	}
}

func TestPairwiseWilcoxon_MatrixShape(t *testing.T) {
	values, labels := threeSeparatedGroups()

	matrix, err := PairwiseWilcoxon(values, labels)
	if err != nil {
		t.Fatalf("PairwiseWilcoxon: %v", err)
	}

	if len(matrix.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(matrix.Groups))
	}

	// Diagonal and lower triangle stay NaN; upper triangle populated.
	for i := range matrix.Groups {
		for j := range matrix.Groups {
			if j > i {
				if math.IsNaN(matrix.P[i][j]) {
					t.Errorf("upper cell (%d,%d) should be populated", i, j)
				}
			} else {
				if !math.IsNaN(matrix.P[i][j]) {
					t.Errorf("cell (%d,%d) should be NaN", i, j)
				}
			}
		}
	}
}

func TestPairwiseWilcoxon_SeparatedGroupsSignificantAfterFDR(t *testing.T) {
	values, labels := threeSeparatedGroups()

	matrix, err := PairwiseWilcoxon(values, labels)
	if err != nil {
		t.Fatalf("PairwiseWilcoxon: %v", err)
	}

	for i := 0; i < len(matrix.Groups); i++ {
		for j := i + 1; j < len(matrix.Groups); j++ {
			p, q, err := matrix.At(matrix.Groups[i], matrix.Groups[j])
			if err != nil {
				t.Fatalf("At(%d,%d): %v", matrix.Groups[i], matrix.Groups[j], err)
			}
			if q < p {
				t.Errorf("pair (%d,%d): q %g below raw p %g", i, j, q, p)
			}
			if q >= 0.001 {
				t.Errorf("pair (%d,%d): expected q < 0.001, got %g", i, j, q)
			}
		}
	}
}

func TestPairwiseWilcoxon_QValuesMonotoneInP(t *testing.T) {
	// Four groups with varying separation produce a spread of p-values;
	// BH q-values must preserve their ordering.
	var values []float64
	var labels []int
	centers := []float64{0.0, 0.05, 0.5, 3.0}
	for g, center := range centers {
		for i := 0; i < 15; i++ {
			values = append(values, center+0.03*float64(i))
			labels = append(labels, g+1)
		}
	}

	matrix, err := PairwiseWilcoxon(values, labels)
	if err != nil {
		t.Fatalf("PairwiseWilcoxon: %v", err)
	}

	type pq struct{ p, q float64 }
	var cells []pq
	for i := range matrix.Groups {
		for j := i + 1; j < len(matrix.Groups); j++ {
			cells = append(cells, pq{matrix.P[i][j], matrix.Q[i][j]})
		}
	}
	for a := range cells {
		for b := range cells {
			if cells[a].p < cells[b].p && cells[a].q > cells[b].q {
				t.Fatalf("q ordering violates p ordering: %+v vs %+v", cells[a], cells[b])
			}
		}
	}
}
