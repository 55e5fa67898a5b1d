package forecast

import (
	"math"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// stationarityThreshold is the lag-1 autocorrelation above which a differenced
// series is treated as still trending and differenced again.
const stationarityThreshold = 0.95

// arimaModel fits ARIMA(1,1,1) by conditional least squares
// (Hannan-Rissanen): difference, fit AR(1), then refit with the lagged
// residual as the MA term. Forecasts are integrated back to the original
// scale.
func arimaModel(series domain.Series, horizon int, _ Config) ([]float64, error) {
	if len(series) < 10 {
		return nil, &domain.ModelFitError{Model: string(ModelARIMA), Reason: "need at least 10 points"}
	}

	values := series.Values()

	// d=1 from the model order, plus one extra pass if the differenced
	// series still fails the stationarity check.
	diffed := difference(values)
	order := 1
	if math.Abs(formulas.Autocorrelation(diffed, 1)) > stationarityThreshold && len(diffed) > 10 {
		diffed = difference(diffed)
		order = 2
	}

	phi, theta, c, lastResidual := fitARMA11(diffed)

	// Recursive forecast on the differenced scale. Future shocks are zero,
	// so the MA term only contributes on the first step.
	forecasts := make([]float64, horizon)
	z := diffed[len(diffed)-1]
	for h := 0; h < horizon; h++ {
		next := c + phi*z
		if h == 0 {
			next += theta * lastResidual
		}
		forecasts[h] = next
		z = next
	}

	return integrate(values, forecasts, order), nil
}

// fitARMA11 estimates phi, theta and the constant for an ARMA(1,1) process.
// Degenerate (zero-variance) series collapse to a flat forecast.
func fitARMA11(z []float64) (phi, theta, c, lastResidual float64) {
	if len(z) < 3 || formulas.Variance(z) == 0 {
		return 0, 0, formulas.Mean(z), 0
	}

	// Stage 1: AR(1) by OLS.
	x := z[:len(z)-1]
	y := z[1:]
	ar := formulas.FitLinear(x, y)

	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - ar.At(0) - ar.Beta*x[i]
	}

	// Stage 2: regress z_t on z_{t-1} and the stage-1 residual e_{t-1}.
	phi, theta, c = twoVarOLS(x[1:], residuals[:len(residuals)-1], y[1:])

	// Keep the AR pole inside the unit circle.
	if phi > 0.99 {
		phi = 0.99
	} else if phi < -0.99 {
		phi = -0.99
	}

	lastResidual = residuals[len(residuals)-1]
	return phi, theta, c, lastResidual
}

// twoVarOLS solves y = c + b1*x1 + b2*x2 by the normal equations.
func twoVarOLS(x1, x2, y []float64) (b1, b2, c float64) {
	n := float64(len(y))
	if n == 0 {
		return 0, 0, 0
	}

	m1, m2, my := formulas.Mean(x1), formulas.Mean(x2), formulas.Mean(y)

	var s11, s22, s12, s1y, s2y float64
	for i := range y {
		d1 := x1[i] - m1
		d2 := x2[i] - m2
		dy := y[i] - my
		s11 += d1 * d1
		s22 += d2 * d2
		s12 += d1 * d2
		s1y += d1 * dy
		s2y += d2 * dy
	}

	det := s11*s22 - s12*s12
	if math.Abs(det) < 1e-12 {
		// Collinear or constant regressors: fall back to AR-only.
		if s11 > 1e-12 {
			b1 = s1y / s11
		}
		return b1, 0, my - b1*m1
	}

	b1 = (s22*s1y - s12*s2y) / det
	b2 = (s11*s2y - s12*s1y) / det
	c = my - b1*m1 - b2*m2
	return b1, b2, c
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// integrate undoes `order` rounds of differencing against the observed tail.
func integrate(observed, diffForecasts []float64, order int) []float64 {
	forecasts := append([]float64(nil), diffForecasts...)

	for d := order; d >= 1; d-- {
		base := lastAfterDifferencing(observed, d-1)
		level := base
		for i := range forecasts {
			level += forecasts[i]
			forecasts[i] = level
		}
	}
	return forecasts
}

// lastAfterDifferencing returns the final value of the series after applying
// the given number of differencing passes.
func lastAfterDifferencing(values []float64, passes int) float64 {
	v := append([]float64(nil), values...)
	for i := 0; i < passes; i++ {
		v = difference(v)
	}
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1]
}
