package domain

import (
	"context"
	"time"
)

// MarketSnapshot is a point-in-time read of marketplace bid/ask/volume data
// for a single product variant.
type MarketSnapshot struct {
	LowestAsk       float64   `json:"lowest_ask"`
	HighestBid      float64   `json:"highest_bid"`
	TradeVelocity30 float64   `json:"trade_velocity_30d"` // sales per 30 days
	AskCount        int       `json:"ask_count"`
	BidCount        int       `json:"bid_count"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Spread returns the bid/ask spread, zero when either side is missing.
func (m *MarketSnapshot) Spread() float64 {
	if m.LowestAsk <= 0 || m.HighestBid <= 0 {
		return 0
	}
	return m.LowestAsk - m.HighestBid
}

// Condition describes the physical state of an inventory unit.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionVeryGood  Condition = "very_good"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionDeadstock Condition = "deadstock"
)

// AdjustmentType distinguishes percentage rules from fixed-amount rules.
type AdjustmentType string

const (
	AdjustPercent AdjustmentType = "percent"
	AdjustFixed   AdjustmentType = "fixed"
)

// PriceRule is an externally managed adjustment applied after a strategy
// produces a base price. Rules run in descending priority order.
type PriceRule struct {
	Name      string         `json:"name"`
	Type      AdjustmentType `json:"adjustment_type"`
	Value     float64        `json:"value"` // signed percent or fixed amount
	Priority  int            `json:"priority"`
	Brand     string         `json:"brand,omitempty"`
	Category  string         `json:"category,omitempty"`
	Platform  string         `json:"platform,omitempty"`
	Condition Condition      `json:"condition,omitempty"`
}

// RuleQuery selects the rules applicable to a pricing context.
type RuleQuery struct {
	Brand     string
	Category  string
	Platform  string
	Condition Condition
}

// HistoricalSalesReader supplies aggregated daily sales for an entity.
type HistoricalSalesReader interface {
	GetDailySales(ctx context.Context, entityID string, since time.Time) ([]SalesPoint, error)
}

// MarketSnapshotReader supplies current marketplace data for an entity.
// Implementations may fail with *NotFoundError or *RateLimitedError.
type MarketSnapshotReader interface {
	GetSnapshot(ctx context.Context, entityID string) (*MarketSnapshot, error)
}

// PricingRuleReader supplies active price-adjustment rules.
type PricingRuleReader interface {
	GetActiveRules(ctx context.Context, q RuleQuery) ([]PriceRule, error)
}

// PriceHistoryReader supplies the trailing recorded lowest asks for an entity,
// newest last. Used for market-condition classification.
type PriceHistoryReader interface {
	GetRecentAsks(ctx context.Context, entityID string, days int) ([]float64, error)
}
