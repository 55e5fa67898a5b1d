package forecast

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// ensembleMembers are the sub-models combined by the ensemble, in execution
// order.
var ensembleMembers = []ModelType{ModelLinearTrend, ModelARIMA, ModelRandomForest}

// ensembleMember is one surviving sub-model run.
type ensembleMember struct {
	model       ModelType
	predictions []float64
	eval        *evaluation
}

// ensembleOutcome is the combined forecast plus the per-member weights that
// produced it.
type ensembleOutcome struct {
	predictions []float64
	weights     map[ModelType]float64
	eval        *evaluation
}

// runEnsemble executes every member, weights the survivors inversely to their
// validation MAE, and combines day-by-day. A member that fails to fit or to
// validate is excluded and the weights renormalize over the survivors; the
// ensemble itself fails only when every member does.
func runEnsemble(series domain.Series, cfg Config, log zerolog.Logger) (*ensembleOutcome, error) {
	var survivors []ensembleMember
	var lastErr error

	for _, model := range ensembleMembers {
		fn := modelFor(model)

		eval := evaluate(fn, series, cfg)
		if eval == nil {
			log.Warn().Str("model", string(model)).Msg("Ensemble member failed validation, excluding")
			lastErr = &domain.ModelFitError{Model: string(model), Reason: "validation fit failed"}
			continue
		}

		predictions, err := fn(series, cfg.HorizonDays, cfg)
		if err != nil {
			log.Warn().Err(err).Str("model", string(model)).Msg("Ensemble member failed, excluding")
			lastErr = err
			continue
		}

		survivors = append(survivors, ensembleMember{model: model, predictions: predictions, eval: eval})
	}

	if len(survivors) == 0 {
		if lastErr == nil {
			lastErr = &domain.ModelFitError{Model: string(ModelEnsemble), Reason: "no sub-models available"}
		}
		return nil, fmt.Errorf("all ensemble sub-models failed: %w", lastErr)
	}

	// Inverse-MAE weighting: lower held-out error earns a larger share.
	const maeFloor = 1e-6
	weights := make(map[ModelType]float64, len(survivors))
	var total float64
	for _, m := range survivors {
		mae := m.eval.metrics.MAE
		if mae < maeFloor {
			mae = maeFloor
		}
		w := 1 / mae
		weights[m.model] = w
		total += w
	}
	for model := range weights {
		weights[model] /= total
	}

	combined := make([]float64, cfg.HorizonDays)
	for i := range combined {
		for _, m := range survivors {
			combined[i] += weights[m.model] * m.predictions[i]
		}
	}

	return &ensembleOutcome{
		predictions: combined,
		weights:     weights,
		eval:        combineEvaluations(series, cfg, survivors, weights),
	}, nil
}

// combineEvaluations rebuilds the held-out comparison for the weighted
// combination so the ensemble reports its own accuracy, not a member's.
func combineEvaluations(series domain.Series, cfg Config, survivors []ensembleMember, weights map[ModelType]float64) *evaluation {
	train, val, ok := splitSeries(series)
	if !ok {
		return nil
	}

	combined := make([]float64, len(val))
	for _, m := range survivors {
		fn := modelFor(m.model)
		predicted, err := fn(train, len(val), cfg)
		if err != nil || len(predicted) != len(val) {
			return nil
		}
		for i := range combined {
			combined[i] += weights[m.model] * predicted[i]
		}
	}

	observed := val.Values()
	residuals := make([]float64, len(observed))
	for i := range observed {
		residuals[i] = observed[i] - combined[i]
	}

	return &evaluation{
		metrics: AccuracyMetrics{
			MAE:  formulas.MAE(observed, combined),
			RMSE: formulas.RMSE(observed, combined),
			R2:   formulas.R2(observed, combined),
			MAPE: formulas.MAPE(observed, combined),
		},
		residualStd: formulas.StdDev(residuals),
	}
}
