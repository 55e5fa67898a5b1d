package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/worker"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// makeSeries builds a daily series of n points starting at testStart.
func makeSeries(n int, value func(i int) float64) domain.Series {
	series := make(domain.Series, n)
	for i := 0; i < n; i++ {
		series[i] = domain.Point{
			Date:  testStart.AddDate(0, 0, i),
			Value: value(i),
		}
	}
	return series
}

func newTestEngine(sales domain.HistoricalSalesReader) *Engine {
	return NewEngine(sales, worker.New(worker.WithWorkers(2)), zerolog.Nop())
}

func TestForecast_InsufficientHistory(t *testing.T) {
	engine := newTestEngine(nil)
	series := makeSeries(45, func(i int) float64 { return 5 })

	_, err := engine.Forecast("sku-1", series, DefaultConfig(ModelLinearTrend))
	require.Error(t, err)

	var insufficientErr *domain.InsufficientHistoryError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, "sku-1", insufficientErr.EntityID)
	assert.Equal(t, 90, insufficientErr.Need)
	assert.Equal(t, 45, insufficientErr.Got)
}

func TestForecast_DataQuality(t *testing.T) {
	// 100 observations spread over 200 calendar days: half the days missing.
	series := make(domain.Series, 100)
	for i := 0; i < 100; i++ {
		series[i] = domain.Point{Date: testStart.AddDate(0, 0, i*2), Value: 5}
	}

	engine := newTestEngine(nil)
	_, err := engine.Forecast("sku-1", series, DefaultConfig(ModelLinearTrend))
	require.Error(t, err)

	var qualityErr *domain.DataQualityError
	assert.True(t, errors.As(err, &qualityErr))
}

func TestForecast_UnknownModel(t *testing.T) {
	engine := newTestEngine(nil)
	series := makeSeries(120, func(i int) float64 { return 5 })

	_, err := engine.Forecast("sku-1", series, Config{Model: "prophets"})
	assert.Error(t, err)
}

func TestForecast_LinearTrend(t *testing.T) {
	series := makeSeries(120, func(i int) float64 { return 10 + 0.5*float64(i) })

	engine := newTestEngine(nil)
	cfg := DefaultConfig(ModelLinearTrend)
	cfg.HorizonDays = 14

	result, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 14)
	require.NotNil(t, result.Metrics)

	// A clean linear trend should keep rising past the last observation.
	last := series[len(series)-1]
	for i, p := range result.Predictions {
		assert.Equal(t, last.Date.AddDate(0, 0, i+1), p.Date)
		assert.Greater(t, p.Predicted, last.Value-1)
		assert.LessOrEqual(t, p.CILower, p.Predicted)
		assert.GreaterOrEqual(t, p.CIUpper, p.Predicted)
	}
	assert.Greater(t, result.Predictions[13].Predicted, result.Predictions[0].Predicted)
	assert.InDelta(t, 0.99, result.Metrics.R2, 0.05)
}

func TestForecast_ARIMAConstantSeries(t *testing.T) {
	series := makeSeries(200, func(i int) float64 { return 10 })

	engine := newTestEngine(nil)
	cfg := DefaultConfig(ModelARIMA)
	cfg.HorizonDays = 7

	result, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 7)

	for _, p := range result.Predictions {
		assert.InDelta(t, 10.0, p.Predicted, 0.5)
		assert.False(t, math.IsNaN(p.Predicted))
		assert.False(t, math.IsNaN(p.CILower))
		assert.False(t, math.IsNaN(p.CIUpper))
	}
}

func TestForecast_SeasonalNaive(t *testing.T) {
	weekly := []float64{4, 5, 6, 7, 9, 14, 12}
	series := makeSeries(140, func(i int) float64 { return weekly[i%7] })

	engine := newTestEngine(nil)
	cfg := DefaultConfig(ModelSeasonalNaive)
	cfg.HorizonDays = 7

	result, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 7)

	// Weekend days should stay visibly above the weekday trough.
	assert.Greater(t, result.Predictions[5].Predicted, result.Predictions[0].Predicted)
}

func TestForecast_EnsembleWeightsSumToOne(t *testing.T) {
	series := makeSeries(200, func(i int) float64 {
		return 20 + 0.1*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/7)
	})

	engine := newTestEngine(nil)
	cfg := DefaultConfig(ModelEnsemble)
	cfg.HorizonDays = 10

	result, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 10)
	require.NotEmpty(t, result.EnsembleWeights)

	var sum float64
	for _, w := range result.EnsembleWeights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestForecast_Deterministic(t *testing.T) {
	series := makeSeries(180, func(i int) float64 {
		return 15 + 0.05*float64(i) + 2*math.Sin(float64(i)/3)
	})

	engine := newTestEngine(nil)
	cfg := DefaultConfig(ModelRandomForest)
	cfg.HorizonDays = 5

	first, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)
	second, err := engine.Forecast("sku-1", series, cfg)
	require.NoError(t, err)

	for i := range first.Predictions {
		assert.Equal(t, first.Predictions[i].Predicted, second.Predictions[i].Predicted)
	}
}

type stubSalesReader struct {
	sales map[string][]domain.SalesPoint
	err   map[string]error
}

func (s *stubSalesReader) GetDailySales(_ context.Context, entityID string, _ time.Time) ([]domain.SalesPoint, error) {
	if err := s.err[entityID]; err != nil {
		return nil, err
	}
	return s.sales[entityID], nil
}

func TestForecastMany_IsolatesFailures(t *testing.T) {
	longHistory := make([]domain.SalesPoint, 120)
	for i := range longHistory {
		longHistory[i] = domain.SalesPoint{
			Date:     testStart.AddDate(0, 0, i),
			Quantity: 8 + 0.2*float64(i),
		}
	}

	reader := &stubSalesReader{
		sales: map[string][]domain.SalesPoint{
			"sku-ok-1":  longHistory,
			"sku-short": longHistory[:20],
			"sku-ok-2":  longHistory,
		},
		err: map[string]error{
			"sku-broken": errors.New("connection reset"),
		},
	}

	engine := newTestEngine(reader)
	batch, err := engine.ForecastMany(context.Background(),
		[]string{"sku-ok-1", "sku-short", "sku-broken", "sku-ok-2"},
		DefaultConfig(ModelLinearTrend))
	require.NoError(t, err)

	assert.NotEmpty(t, batch.RunID)
	assert.Len(t, batch.Results, 2)
	require.Len(t, batch.Failures, 2)

	failed := map[string]ItemFailure{}
	for _, f := range batch.Failures {
		failed[f.EntityID] = f
	}

	var insufficientErr *domain.InsufficientHistoryError
	assert.True(t, errors.As(failed["sku-short"].Err, &insufficientErr))
	assert.Contains(t, failed["sku-broken"].Message, "connection reset")
}

func TestForecastMany_NoReader(t *testing.T) {
	engine := newTestEngine(nil)
	_, err := engine.ForecastMany(context.Background(), []string{"sku-1"}, DefaultConfig(ModelLinearTrend))
	assert.Error(t, err)
}
