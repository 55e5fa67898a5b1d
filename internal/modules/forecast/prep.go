package forecast

import (
	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// modelFunc is a pure forecasting function: history in, one prediction per
// horizon day out. The ensemble composes these; none of them keep state.
type modelFunc func(series domain.Series, horizon int, cfg Config) ([]float64, error)

func modelFor(model ModelType) modelFunc {
	switch model {
	case ModelLinearTrend:
		return linearTrendModel
	case ModelSeasonalNaive:
		return seasonalNaiveModel
	case ModelExponentialSmoothing:
		return exponentialSmoothingModel
	case ModelARIMA:
		return arimaModel
	case ModelRandomForest:
		return randomForestModel
	case ModelGradientBoost:
		return gradientBoostModel
	default:
		return nil
	}
}

// prepareSeries caps extreme outliers at the 99th percentile. The input is
// never mutated.
func prepareSeries(series domain.Series) domain.Series {
	if len(series) <= 10 {
		return series
	}

	cap99 := formulas.Quantile(0.99, series.Values())
	out := make(domain.Series, len(series))
	for i, p := range series {
		if p.Value > cap99 {
			p.Value = cap99
		}
		out[i] = p
	}
	return out
}

// validationSplitRatio reserves the chronological tail for held-out
// evaluation. Order is never shuffled; shuffling would leak future
// observations into the fit.
const validationSplitRatio = 0.2

// minValidationPoints is the smallest tail worth computing metrics on.
const minValidationPoints = 7

// splitSeries returns the chronological train/validation split, or ok=false
// when the series is too short for a meaningful held-out tail.
func splitSeries(series domain.Series) (train, val domain.Series, ok bool) {
	valLen := int(float64(len(series)) * validationSplitRatio)
	if valLen < minValidationPoints {
		return series, nil, false
	}
	cut := len(series) - valLen
	return series[:cut], series[cut:], true
}

// evaluation holds the held-out error profile of a fitted model.
type evaluation struct {
	metrics     AccuracyMetrics
	residualStd float64
}

// evaluate fits the model on the chronological head and scores it against the
// held-out tail. Returns nil when no split is possible or the fit fails.
func evaluate(fn modelFunc, series domain.Series, cfg Config) *evaluation {
	train, val, ok := splitSeries(series)
	if !ok {
		return nil
	}

	predicted, err := fn(train, len(val), cfg)
	if err != nil || len(predicted) != len(val) {
		return nil
	}

	observed := val.Values()
	residuals := make([]float64, len(observed))
	for i := range observed {
		residuals[i] = observed[i] - predicted[i]
	}

	return &evaluation{
		metrics: AccuracyMetrics{
			MAE:  formulas.MAE(observed, predicted),
			RMSE: formulas.RMSE(observed, predicted),
			R2:   formulas.R2(observed, predicted),
			MAPE: formulas.MAPE(observed, predicted),
		},
		residualStd: formulas.StdDev(residuals),
	}
}
