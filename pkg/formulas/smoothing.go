package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA returns the trailing simple moving average of values over the given
// window, or nil if there is not enough data.
func SMA(values []float64, window int) *float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	sma := talib.Sma(values, window)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// TrailingMean returns the mean of the last window values, or of all values
// when fewer are available.
func TrailingMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	lo := len(values) - window
	if lo < 0 {
		lo = 0
	}
	return Mean(values[lo:])
}

// TrailingStd returns the standard deviation of the last window values, or of
// all values when fewer are available.
func TrailingStd(values []float64, window int) float64 {
	lo := len(values) - window
	if lo < 0 {
		lo = 0
	}
	return StdDev(values[lo:])
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
