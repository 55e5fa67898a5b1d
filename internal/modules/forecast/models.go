package forecast

import (
	"fmt"
	"time"
)

// ModelType identifies a forecasting model.
type ModelType string

const (
	ModelLinearTrend          ModelType = "linear_trend"
	ModelSeasonalNaive        ModelType = "seasonal_naive"
	ModelExponentialSmoothing ModelType = "exponential_smoothing"
	ModelARIMA                ModelType = "arima"
	ModelRandomForest         ModelType = "random_forest"
	ModelGradientBoost        ModelType = "gradient_boost"
	ModelEnsemble             ModelType = "ensemble"
)

// ParseModel converts a string to a ModelType.
func ParseModel(s string) (ModelType, error) {
	switch ModelType(s) {
	case ModelLinearTrend, ModelSeasonalNaive, ModelExponentialSmoothing,
		ModelARIMA, ModelRandomForest, ModelGradientBoost, ModelEnsemble:
		return ModelType(s), nil
	}
	return "", fmt.Errorf("unknown forecast model %q", s)
}

// minHistoryDefaults gives each model its hard history precondition in days.
var minHistoryDefaults = map[ModelType]int{
	ModelLinearTrend:          90,
	ModelSeasonalNaive:        90,
	ModelExponentialSmoothing: 90,
	ModelARIMA:                120,
	ModelRandomForest:         150,
	ModelGradientBoost:        150,
	ModelEnsemble:             150,
}

// Config configures a forecasting run.
type Config struct {
	Model           ModelType `validate:"required"`
	HorizonDays     int       `validate:"omitempty,min=1"`
	ConfidenceLevel float64   `validate:"omitempty,gt=0,lt=1"`
	MinHistoryDays  int       `validate:"omitempty,min=1"`

	// SeasonPeriod is the seasonal-naive repetition period in days.
	SeasonPeriod int `validate:"omitempty,min=2"`
	// SmoothingDecay is the exponential smoothing weight decay.
	SmoothingDecay float64 `validate:"omitempty,gt=0,lt=1"`
	// MaxGapFraction is the largest tolerated fraction of missing days.
	MaxGapFraction float64 `validate:"omitempty,gte=0,lt=1"`
}

// DefaultConfig returns a config with the standard defaults for a model.
func DefaultConfig(model ModelType) Config {
	cfg := Config{Model: model}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HorizonDays == 0 {
		c.HorizonDays = 30
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = 0.95
	}
	if c.MinHistoryDays == 0 {
		c.MinHistoryDays = minHistoryDefaults[c.Model]
	}
	if c.SeasonPeriod == 0 {
		c.SeasonPeriod = 7
	}
	if c.SmoothingDecay == 0 {
		c.SmoothingDecay = 0.3
	}
	if c.MaxGapFraction == 0 {
		c.MaxGapFraction = 0.2
	}
}

// PredictionPoint is one forecasted day with its confidence interval.
type PredictionPoint struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted_value"`
	CILower   float64   `json:"ci_lower"`
	CIUpper   float64   `json:"ci_upper"`
}

// AccuracyMetrics summarizes model error on the held-out validation split.
type AccuracyMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"`
}

// Result is an immutable forecast for one entity.
type Result struct {
	EntityID    string            `json:"entity_id"`
	ModelName   ModelType         `json:"model_name"`
	Predictions []PredictionPoint `json:"predictions"`
	// Metrics is nil when the series was too short for a validation split.
	Metrics *AccuracyMetrics `json:"accuracy_metrics,omitempty"`
	// EnsembleWeights reports the per-sub-model weights, ensemble runs only.
	EnsembleWeights map[ModelType]float64 `json:"ensemble_weights,omitempty"`
}

// BatchResult collects per-entity outcomes of a forecast_many run.
type BatchResult struct {
	RunID    string        `json:"run_id"`
	Results  []*Result     `json:"results"`
	Failures []ItemFailure `json:"failures"`
}

// ItemFailure records one entity that could not be forecast.
type ItemFailure struct {
	EntityID string `json:"entity_id"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}
