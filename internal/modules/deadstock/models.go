package deadstock

import (
	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// RiskLevel buckets an item's holding risk.
type RiskLevel string

const (
	RiskHot      RiskLevel = "HOT"
	RiskWarm     RiskLevel = "WARM"
	RiskCold     RiskLevel = "COLD"
	RiskDead     RiskLevel = "DEAD"
	RiskCritical RiskLevel = "CRITICAL"
)

// Weights distribute the risk score across its three factors. They should
// sum to 1.
type Weights struct {
	Age      float64 `json:"age"`
	Velocity float64 `json:"velocity"`
	Trend    float64 `json:"trend"`
}

// DefaultWeights favors velocity: an item that stopped selling is a bigger
// problem than one that is merely old.
func DefaultWeights() Weights {
	return Weights{Age: 0.3, Velocity: 0.4, Trend: 0.3}
}

// Item is one inventory unit submitted for risk analysis.
type Item struct {
	ItemID             string        `json:"item_id"`
	Name               string        `json:"name,omitempty"`
	PurchasePrice      float64       `json:"purchase_price"`
	CurrentMarketPrice *float64      `json:"current_market_price,omitempty"`
	DaysInInventory    int           `json:"days_in_inventory"`
	RecentSales        float64       `json:"recent_sales"`              // units sold in the trailing window
	ExpectedSales      float64       `json:"expected_sales,omitempty"`  // optional override
	SalesHistory       domain.Series `json:"sales_history,omitempty"`   // feeds the demand forecaster
	RecentAsks         []float64     `json:"recent_asks,omitempty"`     // oldest first, feeds the trend factor
}

// DeadStockItem is the scored output for one item.
type DeadStockItem struct {
	ItemID             string    `json:"item_id"`
	Name               string    `json:"name,omitempty"`
	RiskScore          float64   `json:"risk_score"` // clamped to [0,1] for display
	RiskLevel          RiskLevel `json:"risk_level"`
	DaysInInventory    int       `json:"days_in_inventory"`
	PurchasePrice      float64   `json:"purchase_price"`
	CurrentMarketPrice *float64  `json:"current_market_price,omitempty"`
	LockedCapital      float64   `json:"locked_capital"`
	PotentialLoss      float64   `json:"potential_loss"`
	RecommendedActions []string  `json:"recommended_actions"`
}

// TierImpact is the financial footprint of one risk tier.
type TierImpact struct {
	Count         int     `json:"count"`
	LockedCapital float64 `json:"locked_capital"`
	PotentialLoss float64 `json:"potential_loss"`
}

// FinancialImpact totals the capital at risk across the analyzed inventory.
type FinancialImpact struct {
	LockedCapital float64                 `json:"locked_capital"`
	PotentialLoss float64                 `json:"potential_loss"`
	ByTier        map[RiskLevel]TierImpact `json:"by_tier"`
}

// Report is the full dead-stock analysis output.
type Report struct {
	Items           []DeadStockItem   `json:"items"`
	RiskSummary     map[RiskLevel]int `json:"risk_summary"`
	FinancialImpact FinancialImpact   `json:"financial_impact"`
	Recommendations []string          `json:"recommendations"`
}

// actionsByLevel is the fixed mitigation lookup table.
var actionsByLevel = map[RiskLevel][]string{
	RiskHot:  {"monitor market conditions"},
	RiskWarm: {"apply a minor price adjustment (5-10%)"},
	RiskCold: {
		"discount 10-15%",
		"cross-list on additional platforms",
	},
	RiskDead: {
		"discount 15-25%",
		"bundle with faster-moving items",
	},
	RiskCritical: {
		"liquidation pricing (25-40% off)",
		"consider write-off if liquidation fails",
	},
}
