package smartpricing

import (
	"math"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/modules/pricing"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// Thresholds for the market-condition classification, in percent per day.
const (
	volatileAbsChange = 10.0
	bullishAvgChange  = 3.0
	bearishAvgChange  = -3.0
)

// ClassifyCondition derives the prevailing market direction from a trailing
// window of recorded lowest asks, oldest first. Fewer than three observations
// is treated as a stable market.
func ClassifyCondition(asks []float64) pricing.Trend {
	if len(asks) < 3 {
		return pricing.TrendStable
	}

	changes := formulas.PctChanges(asks)
	if len(changes) == 0 {
		return pricing.TrendStable
	}

	var sum, sumAbs float64
	for _, c := range changes {
		sum += c
		sumAbs += math.Abs(c)
	}
	avg := sum / float64(len(changes))
	avgAbs := sumAbs / float64(len(changes))

	switch {
	case avgAbs > volatileAbsChange:
		return pricing.TrendVolatile
	case avg > bullishAvgChange:
		return pricing.TrendBullish
	case avg < bearishAvgChange:
		return pricing.TrendBearish
	default:
		return pricing.TrendStable
	}
}

// Target-margin modulation by market condition, in percentage points.
const (
	baseTargetMargin  = 20.0
	floorTargetMargin = 10.0
)

// modulatedMargin shifts the base target margin with the market: sellers can
// ask more in a rising market and must concede in a falling one.
func modulatedMargin(trend pricing.Trend) float64 {
	margin := baseTargetMargin
	switch trend {
	case pricing.TrendBullish:
		margin += 5
	case pricing.TrendBearish:
		margin -= 3
	case pricing.TrendVolatile:
		margin += 2
	}
	if margin < floorTargetMargin {
		margin = floorTargetMargin
	}
	return margin
}

// sellProbability estimates the chance of a sale at the given price from its
// position inside the bid/ask band, nudged by trade velocity.
func sellProbability(price float64, snap *domain.MarketSnapshot) float64 {
	if snap == nil || snap.LowestAsk <= 0 {
		return 0.5
	}

	var p float64
	mid := (snap.LowestAsk + snap.HighestBid) / 2
	switch {
	case snap.HighestBid > 0 && price <= snap.HighestBid:
		p = 0.95
	case snap.HighestBid > 0 && price <= mid:
		p = 0.80
	case price < snap.LowestAsk:
		p = 0.60
	default:
		over := (price - snap.LowestAsk) / snap.LowestAsk
		p = 0.40 - over
	}

	if snap.TradeVelocity30 > 20 {
		p += 0.05
	}

	return math.Min(0.95, math.Max(0.05, p))
}
