package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/worker"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// Engine runs demand forecasts over historical sales series. All computation
// is CPU-bound and stateless per call; batch runs fan out over a bounded
// worker pool.
type Engine struct {
	sales    domain.HistoricalSalesReader
	pool     *worker.Pool
	validate *validator.Validate
	log      zerolog.Logger
}

// NewEngine creates a forecast engine. The sales reader may be nil when only
// the single-series Forecast entry point is used.
func NewEngine(sales domain.HistoricalSalesReader, pool *worker.Pool, log zerolog.Logger) *Engine {
	if pool == nil {
		pool = worker.New()
	}
	return &Engine{
		sales:    sales,
		pool:     pool,
		validate: validator.New(),
		log:      log.With().Str("module", "forecast").Logger(),
	}
}

// Forecast produces point predictions with confidence intervals for one
// entity's sales series. Fails with *domain.InsufficientHistoryError when the
// series is shorter than the model's history precondition and
// *domain.DataQualityError when too many days are missing.
func (e *Engine) Forecast(entityID string, series domain.Series, cfg Config) (*Result, error) {
	cfg.applyDefaults()
	if err := e.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid forecast config: %w", err)
	}
	if cfg.Model != ModelEnsemble && modelFor(cfg.Model) == nil {
		return nil, fmt.Errorf("unknown forecast model %q", cfg.Model)
	}

	if len(series) < cfg.MinHistoryDays {
		return nil, &domain.InsufficientHistoryError{
			EntityID: entityID,
			Need:     cfg.MinHistoryDays,
			Got:      len(series),
		}
	}
	if frac := series.MissingFraction(); frac > cfg.MaxGapFraction {
		return nil, &domain.DataQualityError{
			EntityID: entityID,
			Reason:   fmt.Sprintf("%.0f%% of days missing (max %.0f%%)", frac*100, cfg.MaxGapFraction*100),
		}
	}

	prepared := prepareSeries(series)

	var (
		predictions []float64
		eval        *evaluation
		weights     map[ModelType]float64
	)

	if cfg.Model == ModelEnsemble {
		outcome, err := runEnsemble(prepared, cfg, e.log)
		if err != nil {
			return nil, err
		}
		predictions = outcome.predictions
		eval = outcome.eval
		weights = outcome.weights
	} else {
		fn := modelFor(cfg.Model)
		eval = evaluate(fn, prepared, cfg)

		var err error
		predictions, err = fn(prepared, cfg.HorizonDays, cfg)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		EntityID:        entityID,
		ModelName:       cfg.Model,
		Predictions:     e.buildPoints(prepared, predictions, eval, cfg),
		EnsembleWeights: weights,
	}
	if eval != nil {
		m := eval.metrics
		result.Metrics = &m
	}

	e.log.Debug().
		Str("entity_id", entityID).
		Str("model", string(cfg.Model)).
		Int("horizon_days", cfg.HorizonDays).
		Msg("Forecast generated")

	return result, nil
}

// buildPoints attaches dates and symmetric confidence intervals to the raw
// predictions. Interval width comes from the held-out residual deviation
// scaled by the z-score of the requested confidence level; without a
// validation split the series deviation is used as a conservative stand-in.
func (e *Engine) buildPoints(series domain.Series, predictions []float64, eval *evaluation, cfg Config) []PredictionPoint {
	std := formulas.StdDev(series.Values())
	if eval != nil {
		std = eval.residualStd
	}
	z := formulas.ZScore(cfg.ConfidenceLevel)

	lastDate := series[len(series)-1].Date
	points := make([]PredictionPoint, len(predictions))
	for i, raw := range predictions {
		pred := raw
		if pred < 0 {
			pred = 0
		}
		lower := raw - z*std
		if lower < 0 {
			lower = 0
		}
		upper := raw + z*std
		if upper < pred {
			upper = pred
		}

		points[i] = PredictionPoint{
			Date:      lastDate.AddDate(0, 0, i+1),
			Predicted: pred,
			CILower:   lower,
			CIUpper:   upper,
		}
	}
	return points
}

// ForecastMany runs the same config across many entities. Per-entity failures
// are collected and reported alongside the successes; the batch itself never
// aborts. Result order follows the input order.
func (e *Engine) ForecastMany(ctx context.Context, entityIDs []string, cfg Config) (*BatchResult, error) {
	if e.sales == nil {
		return nil, fmt.Errorf("forecast engine has no historical sales reader configured")
	}
	cfg.applyDefaults()

	// Pull enough history to satisfy the model plus a horizon of slack.
	lookbackDays := cfg.MinHistoryDays
	if min := minHistoryDefaults[cfg.Model]; lookbackDays < min {
		lookbackDays = min
	}
	since := time.Now().UTC().AddDate(0, 0, -(lookbackDays + 3*cfg.HorizonDays))

	runID := uuid.New().String()
	log := e.log.With().Str("run_id", runID).Logger()
	log.Info().Int("entities", len(entityIDs)).Str("model", string(cfg.Model)).Msg("Starting forecast batch")

	results, errs := worker.Map(ctx, e.pool, len(entityIDs), func(ctx context.Context, i int) (*Result, error) {
		entityID := entityIDs[i]
		sales, err := e.sales.GetDailySales(ctx, entityID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load sales for %q: %w", entityID, err)
		}
		return e.Forecast(entityID, domain.SeriesFromSales(sales), cfg)
	})

	batch := &BatchResult{RunID: runID}
	for i := range results {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("entity_id", entityIDs[i]).Msg("Forecast failed for entity")
			batch.Failures = append(batch.Failures, ItemFailure{
				EntityID: entityIDs[i],
				Err:      errs[i],
				Message:  errs[i].Error(),
			})
			continue
		}
		batch.Results = append(batch.Results, results[i])
	}

	log.Info().
		Int("succeeded", len(batch.Results)).
		Int("failed", len(batch.Failures)).
		Msg("Forecast batch completed")

	return batch, nil
}
