package forecast

import (
	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// seasonalNaiveModel repeats the value observed one season earlier, blended
// with a trailing moving average to damp single-day spikes.
func seasonalNaiveModel(series domain.Series, horizon int, cfg Config) ([]float64, error) {
	period := cfg.SeasonPeriod
	if len(series) < 2*period {
		return nil, &domain.ModelFitError{
			Model:  string(ModelSeasonalNaive),
			Reason: "series shorter than two seasonal periods",
		}
	}

	values := series.Values()
	pattern := values[len(values)-period:]

	// Trailing mean over one period smooths the repeated pattern.
	trailing := formulas.SMA(values, period)
	smooth := formulas.Mean(pattern)
	if trailing != nil {
		smooth = *trailing
	}

	predictions := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		seasonal := pattern[i%period]
		predictions[i] = 0.7*seasonal + 0.3*smooth
	}
	return predictions, nil
}
