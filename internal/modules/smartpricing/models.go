package smartpricing

import (
	"fmt"

	"github.com/g0tchi/soleflip-sub003/internal/modules/pricing"
)

// RepricingStrategy names a preset strategy try-order for a batch run.
type RepricingStrategy string

const (
	ProfitMaximization RepricingStrategy = "profit_maximization"
	MarketCompetitive  RepricingStrategy = "market_competitive"
	QuickTurnover      RepricingStrategy = "quick_turnover"
	PremiumPositioning RepricingStrategy = "premium_positioning"
)

// presetOrders maps each repricing preset to its pricing-strategy try-order.
var presetOrders = map[RepricingStrategy][]pricing.StrategyType{
	ProfitMaximization: {pricing.StrategyMarketBased, pricing.StrategyCompetitive, pricing.StrategyCostPlus},
	MarketCompetitive:  {pricing.StrategyCompetitive, pricing.StrategyMarketBased, pricing.StrategyCostPlus},
	QuickTurnover:      {pricing.StrategyDynamic, pricing.StrategyMarketBased, pricing.StrategyCostPlus},
	PremiumPositioning: {pricing.StrategyValueBased, pricing.StrategyMarketBased, pricing.StrategyCostPlus},
}

// ParseRepricingStrategy converts a string to a RepricingStrategy.
func ParseRepricingStrategy(s string) (RepricingStrategy, error) {
	if _, ok := presetOrders[RepricingStrategy(s)]; !ok {
		return "", fmt.Errorf("unknown repricing strategy %q", s)
	}
	return RepricingStrategy(s), nil
}

// Options configures a batch repricing run.
type Options struct {
	Strategy RepricingStrategy `validate:"required"`
	// MinPriceChange suppresses repricing churn: recommendations moving the
	// price by less than this amount keep the current price.
	MinPriceChange float64 `validate:"omitempty,gt=0"`
	// TrendWindowDays is how far back recorded asks are read for the market
	// condition classification.
	TrendWindowDays int `validate:"omitempty,min=2"`
}

func (o *Options) applyDefaults(minChange float64) {
	if o.Strategy == "" {
		o.Strategy = ProfitMaximization
	}
	if o.MinPriceChange == 0 {
		o.MinPriceChange = minChange
	}
	if o.TrendWindowDays == 0 {
		o.TrendWindowDays = 7
	}
}

// BatchItem is one inventory unit submitted for repricing.
type BatchItem struct {
	Context      pricing.Context `json:"context"`
	CurrentPrice float64         `json:"current_price"`
}

// Recommendation is the repricing outcome for one item.
type Recommendation struct {
	SKU             string          `json:"sku"`
	OldPrice        float64         `json:"old_price"`
	NewPrice        float64         `json:"new_price"`
	Changed         bool            `json:"changed"` // false when inside the min-change threshold
	ProfitDelta     float64         `json:"profit_delta"`
	SellProbability float64         `json:"sell_probability"`
	MarketCondition pricing.Trend   `json:"market_condition"`
	Pricing         *pricing.Result `json:"pricing"`
}

// ItemFailure records one item that could not be repriced.
type ItemFailure struct {
	Index   int    `json:"index"`
	SKU     string `json:"sku"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// BatchResult collects per-item outcomes of an optimize_batch run in input
// order.
type BatchResult struct {
	BatchID         string           `json:"batch_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Failures        []ItemFailure    `json:"failures"`
}
