package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Quantile returns the empirical p-quantile of data (p in [0,1]).
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// PctChanges converts a price sequence to day-over-day percentage changes.
// Changes[i] = (Price[i+1] - Price[i]) / Price[i] * 100
func PctChanges(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			changes = append(changes, (prices[i]-prices[i-1])/prices[i-1]*100)
		}
	}
	return changes
}

// Autocorrelation returns the lag-k sample autocorrelation of data.
func Autocorrelation(data []float64, lag int) float64 {
	if lag <= 0 || len(data) <= lag {
		return 0
	}

	mean := Mean(data)
	var num, den float64
	for i := 0; i < len(data); i++ {
		d := data[i] - mean
		den += d * d
		if i >= lag {
			num += d * (data[i-lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// MAE calculates the mean absolute error between observed and predicted values.
func MAE(observed, predicted []float64) float64 {
	n := min(len(observed), len(predicted))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(observed[i] - predicted[i])
	}
	return sum / float64(n)
}

// RMSE calculates the root mean squared error between observed and predicted values.
func RMSE(observed, predicted []float64) float64 {
	n := min(len(observed), len(predicted))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := observed[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MAPE calculates the mean absolute percentage error, skipping zero observations.
func MAPE(observed, predicted []float64) float64 {
	n := min(len(observed), len(predicted))
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		if observed[i] == 0 {
			continue
		}
		sum += math.Abs((observed[i] - predicted[i]) / observed[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) * 100
}

// R2 calculates the coefficient of determination. Returns 0 when the observed
// values have no variance to explain.
func R2(observed, predicted []float64) float64 {
	n := min(len(observed), len(predicted))
	if n == 0 {
		return 0
	}

	mean := Mean(observed[:n])
	var ssTot, ssRes float64
	for i := 0; i < n; i++ {
		ssTot += (observed[i] - mean) * (observed[i] - mean)
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
