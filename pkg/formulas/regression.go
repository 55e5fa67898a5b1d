package formulas

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LinearFit holds ordinary least-squares coefficients for y = Alpha + Beta*x.
type LinearFit struct {
	Alpha float64
	Beta  float64
}

// FitLinear fits y against x by ordinary least squares.
func FitLinear(x, y []float64) LinearFit {
	if len(x) == 0 || len(x) != len(y) {
		return LinearFit{}
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return LinearFit{Alpha: alpha, Beta: beta}
}

// FitLinearIndex fits y against its own index 0..n-1.
func FitLinearIndex(y []float64) LinearFit {
	x := make([]float64, len(y))
	for i := range y {
		x[i] = float64(i)
	}
	return FitLinear(x, y)
}

// At evaluates the fitted line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Alpha + f.Beta*x
}

// ZScore returns the two-sided z-score for a confidence level in (0,1),
// e.g. 1.96 for 0.95.
func ZScore(confidenceLevel float64) float64 {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		return 1.96
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	return norm.Quantile(1 - (1-confidenceLevel)/2)
}
