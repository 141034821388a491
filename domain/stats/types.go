package stats

import (
	"fmt"
	"math"
)

// ============================================================================
// TEST IDENTIFICATION
// ============================================================================

// TestType defines the statistical test performed
type TestType string

const (
	TestSpearman       TestType = "spearman"        // Spearman rank correlation
	TestKendall        TestType = "kendall"         // Kendall tau-b correlation
	TestShapiroFrancia TestType = "shapiro_francia" // Shapiro-Francia normality test
	TestKruskalWallis  TestType = "kruskal_wallis"  // Kruskal-Wallis omnibus test
	TestMannWhitney    TestType = "mann_whitney"    // Mann-Whitney/Wilcoxon rank-sum test
	TestMultinomial    TestType = "multinomial"     // Multinomial log-linear goodness of fit
)

// ============================================================================
// SINGLE-TEST RESULTS
// ============================================================================

// NormalityResult reports a normality check. It states whether normality is
// rejected at alpha=0.05; the choice of downstream test is fixed policy and
// not decided here.
type NormalityResult struct {
	Test         TestType `json:"test"`
	Statistic    float64  `json:"statistic"`
	PValue       float64  `json:"p_value"`
	SampleSize   int      `json:"sample_size"` // size actually tested (after subsample cap)
	RejectNormal bool     `json:"reject_normal"`
}

// RegressionBand is a fitted least-squares line with a pointwise 95%
// confidence band, evaluated at the sorted predictor values. It exists for
// plotting consumers and must be reproducible, not statistically load-bearing.
type RegressionBand struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	X         []float64 `json:"x"`
	Fit       []float64 `json:"fit"`
	Lower     []float64 `json:"lower"`
	Upper     []float64 `json:"upper"`
}

// CorrelationResult reports a rank correlation between two aligned vectors.
type CorrelationResult struct {
	Test        TestType        `json:"test"`
	Coefficient float64         `json:"coefficient"`
	PValue      float64         `json:"p_value"`
	SampleSize  int             `json:"sample_size"`
	Band        *RegressionBand `json:"band,omitempty"`
}

// PseudoR2Result reports McFadden's pseudo-R-squared for a multinomial
// log-linear fit of a discrete response on a continuous predictor.
type PseudoR2Result struct {
	Test        TestType `json:"test"`
	McFaddenR2  float64  `json:"mcfadden_r2"`
	LogLikFull  float64  `json:"loglik_full"`
	LogLikNull  float64  `json:"loglik_null"`
	Levels      int      `json:"levels"`
	SampleSize  int      `json:"sample_size"`
}

// OmnibusResult reports a Kruskal-Wallis test across ordered classes.
// ExcludedGroups lists labels dropped for having fewer than 2 members;
// they are warnings, not failures.
type OmnibusResult struct {
	Test           TestType    `json:"test"`
	Statistic      float64     `json:"statistic"`
	PValue         float64     `json:"p_value"`
	DegreesFreedom int         `json:"degrees_freedom"`
	GroupSizes     map[int]int `json:"group_sizes"`
	ExcludedGroups []int       `json:"excluded_groups,omitempty"`
}

// ============================================================================
// PAIRWISE RESULT MATRIX
// ============================================================================

// PairwiseMatrix holds pairwise rank-sum results keyed by group-label pairs.
// Only the upper triangle (i < j in group order) is populated; the diagonal
// and lower triangle stay NaN so the matrix shape is stable regardless of
// which pairs were testable. Q holds Benjamini-Hochberg q-values corrected
// across the full pairwise family.
type PairwiseMatrix struct {
	Groups []int       `json:"groups"`
	P      [][]float64 `json:"p"`
	Q      [][]float64 `json:"q"`
}

// NewPairwiseMatrix allocates a NaN-filled matrix over the given groups.
func NewPairwiseMatrix(groups []int) *PairwiseMatrix {
	n := len(groups)
	m := &PairwiseMatrix{
		Groups: append([]int(nil), groups...),
		P:      make([][]float64, n),
		Q:      make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.P[i] = make([]float64, n)
		m.Q[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			m.P[i][j] = math.NaN()
			m.Q[i][j] = math.NaN()
		}
	}
	return m
}

// index returns the position of a group label.
func (m *PairwiseMatrix) index(group int) (int, error) {
	for i, g := range m.Groups {
		if g == group {
			return i, nil
		}
	}
	return 0, fmt.Errorf("group %d not in pairwise matrix", group)
}

// At returns the raw and corrected p-values for a group pair, looking in
// whichever triangle holds the entry.
func (m *PairwiseMatrix) At(g1, g2 int) (p, q float64, err error) {
	i, err := m.index(g1)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	j, err := m.index(g2)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	if !math.IsNaN(m.P[i][j]) {
		return m.P[i][j], m.Q[i][j], nil
	}
	return m.P[j][i], m.Q[j][i], nil
}

// ============================================================================
// CLASSIFICATION
// ============================================================================

// Classification is the output of optimal 1-D clustering: one ordered class
// label per input value, with class centers in strictly increasing order.
type Classification struct {
	K       int       `json:"k"`
	Labels  []int     `json:"labels"`  // aligned to the input vector, values in [1,K]
	Centers []float64 `json:"centers"` // Centers[0] < Centers[1] < ... < Centers[K-1]
	Sizes   []int     `json:"sizes"`
}
