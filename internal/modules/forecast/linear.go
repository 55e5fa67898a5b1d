package forecast

import (
	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// linearTrendModel fits value against day-index by ordinary least squares and
// extrapolates the line. Fastest model, lowest accuracy; also the fallback
// callers reach for when history is short.
func linearTrendModel(series domain.Series, horizon int, _ Config) ([]float64, error) {
	if len(series) < 2 {
		return nil, &domain.ModelFitError{Model: string(ModelLinearTrend), Reason: "need at least 2 points"}
	}

	values := series.Values()
	fit := formulas.FitLinearIndex(values)

	predictions := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		predictions[i] = fit.At(float64(len(values) + i))
	}
	return predictions, nil
}

// exponentialSmoothingModel forecasts the exponentially weighted level of the
// series, flat over the horizon. The decay hyperparameter is cfg.SmoothingDecay.
func exponentialSmoothingModel(series domain.Series, horizon int, cfg Config) ([]float64, error) {
	if len(series) == 0 {
		return nil, &domain.ModelFitError{Model: string(ModelExponentialSmoothing), Reason: "empty series"}
	}

	alpha := cfg.SmoothingDecay
	values := series.Values()

	level := values[0]
	for _, v := range values[1:] {
		level = alpha*v + (1-alpha)*level
	}

	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = level
	}
	return predictions, nil
}
