package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"synergyfit/domain/core"
	"synergyfit/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// Spearman computes the rank correlation between two aligned score vectors.
// Ranks use tie averaging and rho is the Pearson coefficient of the rank
// vectors, which stays exact in the presence of ties. The p-value uses the
// t-distribution approximation with n-2 degrees of freedom. The result
// carries a fitted regression line with a 95% confidence band for plotting
// consumers.
func Spearman(x, y []float64) (*stats.CorrelationResult, error) {
	if err := checkPaired(x, y); err != nil {
		return nil, err
	}

	rho := pearson(ranks(x), ranks(y))
	p := correlationPValue(rho, len(x))

	return &stats.CorrelationResult{
		Test:        stats.TestSpearman,
		Coefficient: rho,
		PValue:      p,
		SampleSize:  len(x),
		Band:        fitBand(x, y),
	}, nil
}

// Kendall computes the tau-b rank correlation with tie correction and a
// normal-approximation p-value.
func Kendall(x, y []float64) (*stats.CorrelationResult, error) {
	if err := checkPaired(x, y); err != nil {
		return nil, err
	}
	n := len(x)

	var concordant, discordant float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 || dy == 0:
				// Ties enter through the marginal corrections below.
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}
	tx := tieCorrectionPairs(x)
	ty := tieCorrectionPairs(y)

	n0 := float64(n*(n-1)) / 2
	denom := math.Sqrt((n0 - tx) * (n0 - ty))
	if denom == 0 {
		return nil, fmt.Errorf("%w: a variable is constant, tau undefined", core.ErrEmptyInput)
	}
	tau := (concordant - discordant) / denom
	if tau > 1 {
		tau = 1
	} else if tau < -1 {
		tau = -1
	}

	// Normal approximation for the null distribution of S = C - D.
	nf := float64(n)
	z := 3 * (concordant - discordant) / math.Sqrt(nf*(nf-1)*(2*nf+5)/2)
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}

	return &stats.CorrelationResult{
		Test:        stats.TestKendall,
		Coefficient: tau,
		PValue:      p,
		SampleSize:  n,
	}, nil
}

// tieCorrectionPairs returns sum(t*(t-1)/2) over tie groups: the number of
// tied pairs within a variable.
func tieCorrectionPairs(data []float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	var sum float64
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		t := float64(j - i)
		sum += t * (t - 1) / 2
		i = j
	}
	return sum
}

func checkPaired(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: vectors have lengths %d and %d",
			core.ErrModelMismatch, len(x), len(y))
	}
	if len(x) < 3 {
		return fmt.Errorf("%w: need at least 3 paired observations, got %d",
			core.ErrEmptyInput, len(x))
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return fmt.Errorf("%w: pair %d", core.ErrNaNInput, i)
		}
	}
	return nil
}

// pearson computes the Pearson correlation coefficient, clamped to [-1, 1].
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var numerator, sumXX, sumYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}
	if sumXX == 0 || sumYY == 0 {
		return 0
	}

	r := numerator / math.Sqrt(sumXX*sumYY)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// correlationPValue is the two-tailed t-approximation p-value for a
// correlation coefficient with n paired observations.
func correlationPValue(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * tDist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}
	return p
}

// fitBand fits y on x by least squares and evaluates the line with a
// pointwise 95% confidence band at the sorted x values. It is deterministic
// for a given input and exists for downstream plotting, not inference.
func fitBand(x, y []float64) *stats.RegressionBand {
	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 {
		return nil
	}
	slope := sxy / sxx
	intercept := meanY - slope*meanX

	// Residual standard error.
	var rss float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		rss += resid * resid
	}
	df := n - 2
	if df <= 0 {
		return nil
	}
	s := math.Sqrt(rss / df)

	tCrit := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(0.975)

	xs := append([]float64(nil), x...)
	sort.Float64s(xs)

	band := &stats.RegressionBand{
		Slope:     slope,
		Intercept: intercept,
		X:         xs,
		Fit:       make([]float64, len(xs)),
		Lower:     make([]float64, len(xs)),
		Upper:     make([]float64, len(xs)),
	}
	for i, x0 := range xs {
		fit := intercept + slope*x0
		se := s * math.Sqrt(1/n+(x0-meanX)*(x0-meanX)/sxx)
		band.Fit[i] = fit
		band.Lower[i] = fit - tCrit*se
		band.Upper[i] = fit + tCrit*se
	}
	return band
}
