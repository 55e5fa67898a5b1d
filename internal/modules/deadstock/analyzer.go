package deadstock

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// DemandForecaster supplies expected unit demand over a future window.
// Optional; without one the analyzer falls back to the historical average.
type DemandForecaster interface {
	ExpectedDemand(ctx context.Context, entityID string, history domain.Series, horizonDays int) (float64, error)
}

// DefaultAgeThresholdDays is the inventory age at which the age factor
// saturates and the risk level escalates to CRITICAL.
const DefaultAgeThresholdDays = 180

// velocityWindowDays is the trailing window RecentSales is measured over and
// the horizon expected sales are projected onto.
const velocityWindowDays = 30

// Analyzer scores inventory holding risk from age, sales velocity, and market
// price trend.
type Analyzer struct {
	forecaster   DemandForecaster // may be nil
	ageThreshold int
	log          zerolog.Logger
}

// NewAnalyzer creates a dead-stock analyzer. A non-positive ageThresholdDays
// selects the default of 180.
func NewAnalyzer(forecaster DemandForecaster, ageThresholdDays int, log zerolog.Logger) *Analyzer {
	if ageThresholdDays <= 0 {
		ageThresholdDays = DefaultAgeThresholdDays
	}
	return &Analyzer{
		forecaster:   forecaster,
		ageThreshold: ageThresholdDays,
		log:          log.With().Str("module", "deadstock").Logger(),
	}
}

// Analyze scores every item and assembles the portfolio report. A nil weights
// pointer selects the defaults.
func (a *Analyzer) Analyze(ctx context.Context, items []Item, weights *Weights) (*Report, error) {
	w := DefaultWeights()
	if weights != nil {
		w = *weights
	}
	if w.Age < 0 || w.Velocity < 0 || w.Trend < 0 {
		return nil, fmt.Errorf("risk weights must be non-negative, got %+v", w)
	}

	report := &Report{
		RiskSummary: make(map[RiskLevel]int),
		FinancialImpact: FinancialImpact{
			ByTier: make(map[RiskLevel]TierImpact),
		},
	}

	for _, item := range items {
		scored := a.scoreItem(ctx, item, w)
		report.Items = append(report.Items, scored)
		report.RiskSummary[scored.RiskLevel]++

		report.FinancialImpact.LockedCapital += scored.LockedCapital
		report.FinancialImpact.PotentialLoss += scored.PotentialLoss
		tier := report.FinancialImpact.ByTier[scored.RiskLevel]
		tier.Count++
		tier.LockedCapital += scored.LockedCapital
		tier.PotentialLoss += scored.PotentialLoss
		report.FinancialImpact.ByTier[scored.RiskLevel] = tier
	}

	report.Recommendations = portfolioRecommendations(report)

	a.log.Info().
		Int("items", len(items)).
		Int("critical", report.RiskSummary[RiskCritical]).
		Int("dead", report.RiskSummary[RiskDead]).
		Float64("locked_capital", report.FinancialImpact.LockedCapital).
		Msg("Dead stock analysis completed")

	return report, nil
}

func (a *Analyzer) scoreItem(ctx context.Context, item Item, w Weights) DeadStockItem {
	score := w.Age*a.ageFactor(item) +
		w.Velocity*a.velocityFactor(ctx, item) +
		w.Trend*trendFactor(item)

	level := riskLevel(score)
	if item.DaysInInventory > a.ageThreshold {
		level = RiskCritical
	}

	potentialLoss := 0.0
	if item.CurrentMarketPrice != nil {
		potentialLoss = math.Max(0, item.PurchasePrice-*item.CurrentMarketPrice)
	}

	return DeadStockItem{
		ItemID:             item.ItemID,
		Name:               item.Name,
		RiskScore:          math.Min(1.0, score),
		RiskLevel:          level,
		DaysInInventory:    item.DaysInInventory,
		PurchasePrice:      item.PurchasePrice,
		CurrentMarketPrice: item.CurrentMarketPrice,
		LockedCapital:      item.PurchasePrice,
		PotentialLoss:      potentialLoss,
		RecommendedActions: actionsByLevel[level],
	}
}

// ageFactor saturates at 1 once the item reaches the age threshold.
func (a *Analyzer) ageFactor(item Item) float64 {
	return math.Min(1, float64(item.DaysInInventory)/float64(a.ageThreshold))
}

// velocityFactor measures how far short of expected demand the item's recent
// sales fell. 0 means selling at or above expectation, 1 means not selling
// at all.
func (a *Analyzer) velocityFactor(ctx context.Context, item Item) float64 {
	expected := a.expectedSales(ctx, item)
	if expected <= 0 {
		if item.RecentSales > 0 {
			return 0
		}
		return 1
	}
	return clamp01(1 - item.RecentSales/expected)
}

// expectedSales resolves the demand expectation: explicit override, then the
// forecaster, then the historical daily average projected over the window.
func (a *Analyzer) expectedSales(ctx context.Context, item Item) float64 {
	if item.ExpectedSales > 0 {
		return item.ExpectedSales
	}
	if a.forecaster != nil && len(item.SalesHistory) > 0 {
		expected, err := a.forecaster.ExpectedDemand(ctx, item.ItemID, item.SalesHistory, velocityWindowDays)
		if err == nil {
			return expected
		}
		a.log.Debug().Err(err).Str("item_id", item.ItemID).
			Msg("Demand forecast unavailable, using historical average")
	}
	if len(item.SalesHistory) > 0 {
		return formulas.Mean(item.SalesHistory.Values()) * velocityWindowDays
	}
	return 0
}

// trendFactor is the observed market price decline over the recorded ask
// window, 0 when the price held or rose. Falls back to the purchase-to-market
// decline when no ask history is available.
func trendFactor(item Item) float64 {
	if len(item.RecentAsks) >= 2 {
		first := item.RecentAsks[0]
		last := item.RecentAsks[len(item.RecentAsks)-1]
		if first > 0 {
			return math.Max(0, (first-last)/first)
		}
	}
	if item.CurrentMarketPrice != nil && item.PurchasePrice > 0 {
		return math.Max(0, (item.PurchasePrice-*item.CurrentMarketPrice)/item.PurchasePrice)
	}
	return 0
}

// riskLevel maps the unclamped score onto the fixed tier thresholds. Scores
// beyond 1.0 land in CRITICAL.
func riskLevel(score float64) RiskLevel {
	switch {
	case score <= 0.25:
		return RiskHot
	case score <= 0.50:
		return RiskWarm
	case score <= 0.75:
		return RiskCold
	case score <= 1.00:
		return RiskDead
	default:
		return RiskCritical
	}
}

// portfolioRecommendations derives the report-level action list from the tier
// counts and the capital at risk.
func portfolioRecommendations(r *Report) []string {
	var recs []string

	urgent := r.RiskSummary[RiskCritical] + r.RiskSummary[RiskDead]
	if urgent > 0 {
		recs = append(recs, fmt.Sprintf("%d items need liquidation pricing or deep discounts", urgent))
	}
	if cold := r.RiskSummary[RiskCold]; cold > 0 {
		recs = append(recs, fmt.Sprintf("%d items should be discounted and cross-listed before they go dead", cold))
	}
	if loss := r.FinancialImpact.PotentialLoss; loss > 0 {
		recs = append(recs, fmt.Sprintf("%.2f of potential loss exposure if held to market", loss))
	}
	if len(recs) == 0 && len(r.Items) > 0 {
		recs = append(recs, "inventory risk is under control, keep monitoring")
	}
	return recs
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
