package classify

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"synergyfit/domain/core"
)

// TestCluster1D_ThreeContiguousPairs covers the end-to-end scenario:
// three well separated pairs get labels {1,1,2,2,3,3} with centers near
// {0.125, 0.525, 0.925}.
func TestCluster1D_ThreeContiguousPairs(t *testing.T) {
	values := []float64{0.1, 0.15, 0.5, 0.55, 0.9, 0.95}

	c, err := Cluster1D(values, 3)
	if err != nil {
		t.Fatalf("Cluster1D: %v", err)
	}

	wantLabels := []int{1, 1, 2, 2, 3, 3}
	if !reflect.DeepEqual(c.Labels, wantLabels) {
		t.Errorf("labels: expected %v, got %v", wantLabels, c.Labels)
	}

	wantCenters := []float64{0.125, 0.525, 0.925}
	for i, want := range wantCenters {
		if math.Abs(c.Centers[i]-want) > 1e-9 {
			t.Errorf("center %d: expected %f, got %f", i, want, c.Centers[i])
		}
	}

	wantSizes := []int{2, 2, 2}
	if !reflect.DeepEqual(c.Sizes, wantSizes) {
		t.Errorf("sizes: expected %v, got %v", wantSizes, c.Sizes)
	}
}

// TestCluster1D_LabelsMonotoneInValue checks that sorting the inputs never
// produces a label decrease: larger values always land in equal-or-higher
// classes.
func TestCluster1D_LabelsMonotoneInValue(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 500)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	for _, k := range []int{2, 3, 5, 8} {
		c, err := Cluster1D(values, k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}

		type pair struct {
			v float64
			l int
		}
		pairs := make([]pair, len(values))
		for i := range values {
			pairs[i] = pair{values[i], c.Labels[i]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

		for i := 1; i < len(pairs); i++ {
			if pairs[i].l < pairs[i-1].l {
				t.Fatalf("k=%d: label decreased from %d to %d as value increased",
					k, pairs[i-1].l, pairs[i].l)
			}
		}

		for i := 1; i < k; i++ {
			if c.Centers[i] <= c.Centers[i-1] {
				t.Fatalf("k=%d: centers not strictly increasing: %v", k, c.Centers)
			}
		}
	}
}

func TestCluster1D_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 200)
	for i := range values {
		values[i] = rng.Float64()
	}

	first, err := Cluster1D(values, 4)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Cluster1D(values, 4)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.Labels, second.Labels) {
		t.Error("labels differ between identical runs")
	}
	if !reflect.DeepEqual(first.Centers, second.Centers) {
		t.Error("centers differ between identical runs")
	}
	if !reflect.DeepEqual(first.Sizes, second.Sizes) {
		t.Error("sizes differ between identical runs")
	}
}

func TestCluster1D_DuplicatesShareLabel(t *testing.T) {
	values := []float64{0.2, 0.8, 0.2, 0.8, 0.2, 0.5, 0.5}

	c, err := Cluster1D(values, 3)
	if err != nil {
		t.Fatalf("Cluster1D: %v", err)
	}

	seen := map[float64]int{}
	for i, v := range values {
		if prev, ok := seen[v]; ok && prev != c.Labels[i] {
			t.Fatalf("value %f got labels %d and %d", v, prev, c.Labels[i])
		}
		seen[v] = c.Labels[i]
	}
}

func TestCluster1D_OptimalOverGreedySplit(t *testing.T) {
	// A spread pair plus a tight trio; the optimal 2-partition isolates the
	// trio, which a poorly seeded iterative k-means can miss.
	values := []float64{0, 4, 10, 10.2, 10.4}

	c, err := Cluster1D(values, 2)
	if err != nil {
		t.Fatalf("Cluster1D: %v", err)
	}
	want := []int{1, 1, 2, 2, 2}
	if !reflect.DeepEqual(c.Labels, want) {
		t.Errorf("expected %v, got %v", want, c.Labels)
	}
}

func TestCluster1D_TooManyClassesFails(t *testing.T) {
	_, err := Cluster1D([]float64{1, 1, 2, 2}, 3)
	if !errors.Is(err, core.ErrTooManyClasses) {
		t.Fatalf("expected ErrTooManyClasses, got %v", err)
	}
}

func TestCluster1D_RejectsNaN(t *testing.T) {
	_, err := Cluster1D([]float64{1, math.NaN(), 2}, 2)
	if !errors.Is(err, core.ErrNaNInput) {
		t.Fatalf("expected ErrNaNInput, got %v", err)
	}
}

func TestCluster1D_EmptyInputFails(t *testing.T) {
	_, err := Cluster1D(nil, 2)
	if !errors.Is(err, core.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestCluster1D_SingleCluster(t *testing.T) {
	values := []float64{3, 1, 2}
	c, err := Cluster1D(values, 1)
	if err != nil {
		t.Fatalf("Cluster1D: %v", err)
	}
	if !reflect.DeepEqual(c.Labels, []int{1, 1, 1}) {
		t.Errorf("expected all labels 1, got %v", c.Labels)
	}
	if math.Abs(c.Centers[0]-2.0) > 1e-12 {
		t.Errorf("expected center 2.0, got %f", c.Centers[0])
	}
}

func TestCluster1D_KEqualsDistinctCount(t *testing.T) {
	values := []float64{5, 1, 3}
	c, err := Cluster1D(values, 3)
	if err != nil {
		t.Fatalf("Cluster1D: %v", err)
	}
	// Every distinct value becomes its own class, ordered by value.
	if !reflect.DeepEqual(c.Labels, []int{3, 1, 2}) {
		t.Errorf("expected [3 1 2], got %v", c.Labels)
	}
	if !reflect.DeepEqual(c.Sizes, []int{1, 1, 1}) {
		t.Errorf("expected unit sizes, got %v", c.Sizes)
	}
}
