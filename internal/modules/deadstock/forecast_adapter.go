package deadstock

import (
	"context"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/modules/forecast"
)

// ForecastAdapter sources expected demand from the forecast engine using the
// fast linear-trend model. Short histories surface as errors and trigger the
// analyzer's historical-average fallback.
type ForecastAdapter struct {
	engine *forecast.Engine
}

// NewForecastAdapter wraps a forecast engine as a DemandForecaster.
func NewForecastAdapter(engine *forecast.Engine) *ForecastAdapter {
	return &ForecastAdapter{engine: engine}
}

func (a *ForecastAdapter) ExpectedDemand(_ context.Context, entityID string, history domain.Series, horizonDays int) (float64, error) {
	cfg := forecast.DefaultConfig(forecast.ModelLinearTrend)
	cfg.HorizonDays = horizonDays

	result, err := a.engine.Forecast(entityID, history, cfg)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, p := range result.Predictions {
		total += p.Predicted
	}
	return total, nil
}
