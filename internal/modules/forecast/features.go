package forecast

import (
	"time"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// Calendar and lag features for the supervised tree models. Lag features
// reference positions that recursive forecasting can refill day by day.
var featureNames = []string{
	"day_of_week",
	"month",
	"week_of_year",
	"is_weekend",
	"lag_1",
	"lag_7",
	"lag_30",
	"rolling_mean_7",
	"rolling_mean_30",
	"rolling_std_7",
}

// buildFeatureRow computes one feature vector for the day at `date`, where
// `history` holds every observed (and recursively predicted) value before it.
func buildFeatureRow(date time.Time, history []float64) []float64 {
	n := len(history)

	lag := func(k int) float64 {
		if n >= k {
			return history[n-k]
		}
		return 0
	}

	isWeekend := 0.0
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		isWeekend = 1.0
	}
	_, week := date.ISOWeek()

	return []float64{
		float64(date.Weekday()),
		float64(date.Month()),
		float64(week),
		isWeekend,
		lag(1),
		lag(7),
		lag(30),
		formulas.TrailingMean(history, 7),
		formulas.TrailingMean(history, 30),
		formulas.TrailingStd(history, 7),
	}
}

// supervisedSet turns a series into feature rows and targets. The first
// `burnIn` days are skipped so lag features have real history behind them.
func supervisedSet(series domain.Series) (rows [][]float64, targets []float64) {
	const burnIn = 30

	values := series.Values()
	for i := burnIn; i < len(series); i++ {
		rows = append(rows, buildFeatureRow(series[i].Date, values[:i]))
		targets = append(targets, values[i])
	}
	return rows, targets
}

// recursiveForecast feeds each day's prediction back as history for the next
// day's lag features.
func recursiveForecast(predict func(row []float64) float64, series domain.Series, horizon int) []float64 {
	history := series.Values()
	lastDate := series[len(series)-1].Date

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		date := lastDate.AddDate(0, 0, h+1)
		pred := predict(buildFeatureRow(date, history))
		if pred < 0 {
			pred = 0
		}
		out[h] = pred
		history = append(history, pred)
	}
	return out
}
