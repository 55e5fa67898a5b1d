package pricing

import (
	"fmt"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// StrategyType identifies one pricing algorithm.
type StrategyType string

const (
	StrategyCostPlus    StrategyType = "cost_plus"
	StrategyMarketBased StrategyType = "market_based"
	StrategyCompetitive StrategyType = "competitive"
	StrategyValueBased  StrategyType = "value_based"
	StrategyDynamic     StrategyType = "dynamic"
)

// DefaultOrder is the strategy try-order used when the caller passes none.
var DefaultOrder = []StrategyType{
	StrategyMarketBased,
	StrategyCompetitive,
	StrategyCostPlus,
	StrategyValueBased,
	StrategyDynamic,
}

// ParseStrategy converts a string to a StrategyType.
func ParseStrategy(s string) (StrategyType, error) {
	switch StrategyType(s) {
	case StrategyCostPlus, StrategyMarketBased, StrategyCompetitive,
		StrategyValueBased, StrategyDynamic:
		return StrategyType(s), nil
	}
	return "", fmt.Errorf("unknown pricing strategy %q", s)
}

// Trend is the prevailing market direction signal consumed by the dynamic
// strategy. The smart pricing orchestrator classifies it from recorded asks.
type Trend string

const (
	TrendBullish  Trend = "bullish"
	TrendBearish  Trend = "bearish"
	TrendStable   Trend = "stable"
	TrendVolatile Trend = "volatile"
)

// BrandTier ranks a brand's resale desirability.
type BrandTier string

const (
	TierStandard BrandTier = "standard"
	TierPremium  BrandTier = "premium"
	TierLuxury   BrandTier = "luxury"
)

// Product carries the catalog metadata a strategy may price on.
type Product struct {
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	BrandTier     BrandTier `json:"brand_tier,omitempty"`
	Category      string    `json:"category"`
	Collaboration bool      `json:"collaboration"`
	LimitedRun    bool      `json:"limited_run"`
}

// Context is everything known about one unit at pricing time. At least one of
// UnitCost, Snapshot, or CompetitorPrices must be present.
type Context struct {
	Product      Product          `json:"product"`
	UnitCost     *float64         `json:"unit_cost,omitempty"`
	TargetMargin *float64         `json:"target_margin,omitempty"` // percent of price, 0-100
	Condition    domain.Condition `json:"condition,omitempty"`
	Size         string           `json:"size,omitempty"`
	Platform     string           `json:"platform,omitempty"`

	Snapshot         *domain.MarketSnapshot `json:"market_snapshot,omitempty"`
	CompetitorPrices map[string]float64     `json:"competitor_prices,omitempty"`

	InventoryAgeDays int   `json:"inventory_age_days,omitempty"`
	MarketTrend      Trend `json:"market_trend,omitempty"`
}

// hasAnyPriceSource reports whether the context satisfies the engine's
// data-sufficiency invariant.
func (c *Context) hasAnyPriceSource() bool {
	return (c.UnitCost != nil && *c.UnitCost > 0) ||
		(c.Snapshot != nil && c.Snapshot.LowestAsk > 0) ||
		len(c.CompetitorPrices) > 0
}

// Position places a suggested price relative to the current market.
type Position string

const (
	PositionBudget      Position = "budget"
	PositionCompetitive Position = "competitive"
	PositionPremium     Position = "premium"
)

// Range bounds a price recommendation.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Result is an immutable price recommendation.
type Result struct {
	SuggestedPrice  float64      `json:"suggested_price"`
	StrategyUsed    StrategyType `json:"strategy_used"`
	ConfidenceScore float64      `json:"confidence_score"` // 0-100
	MarginPercent   float64      `json:"margin_percent"`
	MarkupPercent   float64      `json:"markup_percent"`
	Reasoning       []string     `json:"reasoning"`
	MarketPosition  Position     `json:"market_position"`
	PriceRange      Range        `json:"price_range"`
}

// quote is a strategy's raw output before the rule layer and rounding run.
type quote struct {
	price      float64
	confidence float64
	reasoning  []string
}
