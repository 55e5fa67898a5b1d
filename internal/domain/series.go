package domain

import "time"

// Point is a single daily observation in a sales time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered daily time series (one point per calendar day,
// gaps allowed but discouraged).
type Series []Point

// Values returns the observed values in order.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// SpanDays returns the number of calendar days covered by the series,
// inclusive of both end points. Zero for empty series.
func (s Series) SpanDays() int {
	if len(s) == 0 {
		return 0
	}
	return int(s[len(s)-1].Date.Sub(s[0].Date).Hours()/24) + 1
}

// MissingFraction returns the fraction of calendar days within the series span
// that have no observation.
func (s Series) MissingFraction() float64 {
	span := s.SpanDays()
	if span == 0 {
		return 0
	}
	return float64(span-len(s)) / float64(span)
}

// SalesPoint is one day of aggregated sales for an entity, as returned by the
// historical sales reader.
type SalesPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Revenue  float64   `json:"revenue"`
}

// SeriesFromSales converts daily sales rows into a unit-demand series.
func SeriesFromSales(sales []SalesPoint) Series {
	series := make(Series, len(sales))
	for i, sp := range sales {
		series[i] = Point{Date: sp.Date, Value: sp.Quantity}
	}
	return series
}
