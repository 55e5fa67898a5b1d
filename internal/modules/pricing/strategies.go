package pricing

import (
	"fmt"
	"math"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// Strategy is one self-contained pricing algorithm. Applicable checks the
// data precondition; Calculate runs only after Applicable returned true.
type Strategy interface {
	Type() StrategyType
	Applicable(c *Context) bool
	Calculate(c *Context) (*quote, error)
}

// defaultTargetMargin is the margin-of-price applied when the context carries
// no explicit target, in percent.
const defaultTargetMargin = 20.0

// targetMargin resolves the effective margin for a context, clamped to keep
// the cost-plus division sane.
func targetMargin(c *Context, fallback float64) float64 {
	margin := fallback
	if c.TargetMargin != nil {
		margin = *c.TargetMargin
	}
	if margin < 0 {
		margin = 0
	}
	if margin > 95 {
		margin = 95
	}
	return margin
}

// marginFloor is the lowest price that still hits the target margin on a
// known unit cost. price = cost / (1 - margin/100).
func marginFloor(cost, marginPct float64) float64 {
	return cost / (1 - marginPct/100)
}

// conditionMultiplier discounts a base price by physical condition. Deadstock
// means new-unworn in resale terms, so it carries no discount.
func conditionMultiplier(c domain.Condition) float64 {
	switch c {
	case domain.ConditionExcellent:
		return 0.92
	case domain.ConditionVeryGood:
		return 0.85
	case domain.ConditionGood:
		return 0.75
	case domain.ConditionFair:
		return 0.65
	case domain.ConditionPoor:
		return 0.50
	default: // new, deadstock, unknown
		return 1.0
	}
}

// --- cost plus ---

type costPlusStrategy struct{ defaultMargin float64 }

func (s *costPlusStrategy) Type() StrategyType { return StrategyCostPlus }

func (s *costPlusStrategy) Applicable(c *Context) bool {
	return c.UnitCost != nil && *c.UnitCost > 0
}

func (s *costPlusStrategy) Calculate(c *Context) (*quote, error) {
	cost := *c.UnitCost
	margin := targetMargin(c, s.defaultMargin)
	price := marginFloor(cost, margin)

	return &quote{
		price:      price,
		confidence: 85,
		reasoning: []string{
			fmt.Sprintf("cost-plus: %.2f unit cost at %.1f%% target margin", cost, margin),
		},
	}, nil
}

// --- market based ---

type marketBasedStrategy struct{}

func (s *marketBasedStrategy) Type() StrategyType { return StrategyMarketBased }

func (s *marketBasedStrategy) Applicable(c *Context) bool {
	return c.Snapshot != nil && c.Snapshot.LowestAsk > 0
}

func (s *marketBasedStrategy) Calculate(c *Context) (*quote, error) {
	snap := c.Snapshot
	velocity := snap.TradeVelocity30

	// More competing asks means a deeper undercut is needed to be seen.
	crowding := math.Min(0.05, float64(snap.AskCount)*0.001)

	var price float64
	var band string
	switch {
	case velocity > 20:
		undercut := 0.05 + crowding
		price = snap.LowestAsk * (1 - undercut)
		band = fmt.Sprintf("fast mover (%.0f sales/30d), %.1f%% below lowest ask", velocity, undercut*100)
	case velocity >= 10:
		undercut := math.Min(0.02, crowding)
		price = snap.LowestAsk * (1 - undercut)
		band = fmt.Sprintf("steady mover (%.0f sales/30d), %.1f%% below lowest ask", velocity, undercut*100)
	default:
		if snap.HighestBid > 0 {
			price = snap.HighestBid * 1.10
			band = fmt.Sprintf("slow mover (%.0f sales/30d), priced at highest bid +10%%", velocity)
		} else {
			price = snap.LowestAsk * 0.95
			band = fmt.Sprintf("slow mover (%.0f sales/30d), no bids, 5%% below lowest ask", velocity)
		}
	}

	return &quote{
		price:      price,
		confidence: 90,
		reasoning: []string{
			fmt.Sprintf("market-based: lowest ask %.2f, highest bid %.2f, %d asks", snap.LowestAsk, snap.HighestBid, snap.AskCount),
			band,
		},
	}, nil
}

// --- competitive ---

type competitiveStrategy struct{ defaultMargin float64 }

func (s *competitiveStrategy) Type() StrategyType { return StrategyCompetitive }

func (s *competitiveStrategy) Applicable(c *Context) bool {
	for _, p := range c.CompetitorPrices {
		if p > 0 {
			return true
		}
	}
	return false
}

func (s *competitiveStrategy) Calculate(c *Context) (*quote, error) {
	lowest := math.Inf(1)
	lowestName := ""
	count := 0
	for name, p := range c.CompetitorPrices {
		if p <= 0 {
			continue
		}
		count++
		if p < lowest {
			lowest = p
			lowestName = name
		}
	}

	// Undercut grows with the number of competitors, 2% to 5%.
	undercut := math.Min(0.05, 0.02+0.01*float64(count-1))
	price := lowest * (1 - undercut)

	reasoning := []string{
		fmt.Sprintf("competitive: lowest of %d competitors is %.2f (%s), undercut %.1f%%", count, lowest, lowestName, undercut*100),
	}

	if c.UnitCost != nil && *c.UnitCost > 0 {
		floor := marginFloor(*c.UnitCost, targetMargin(c, s.defaultMargin))
		if price < floor {
			price = floor
			reasoning = append(reasoning, fmt.Sprintf("raised to margin floor %.2f", floor))
		}
	}

	return &quote{price: price, confidence: 88, reasoning: reasoning}, nil
}

// --- value based ---

type valueBasedStrategy struct{}

func (s *valueBasedStrategy) Type() StrategyType { return StrategyValueBased }

func (s *valueBasedStrategy) Applicable(c *Context) bool {
	hype := c.Product.BrandTier == TierPremium || c.Product.BrandTier == TierLuxury ||
		c.Product.Collaboration || c.Product.LimitedRun
	hasBase := (c.Snapshot != nil && c.Snapshot.LowestAsk > 0) ||
		(c.UnitCost != nil && *c.UnitCost > 0)
	return hype && hasBase
}

func (s *valueBasedStrategy) Calculate(c *Context) (*quote, error) {
	var base float64
	var baseSource string
	switch {
	case c.Snapshot != nil && c.Snapshot.LowestAsk > 0 && c.Snapshot.HighestBid > 0:
		base = (c.Snapshot.LowestAsk + c.Snapshot.HighestBid) / 2
		baseSource = "market midpoint"
	case c.Snapshot != nil && c.Snapshot.LowestAsk > 0:
		base = c.Snapshot.LowestAsk
		baseSource = "lowest ask"
	default:
		base = *c.UnitCost
		baseSource = "unit cost"
	}

	price := base
	reasoning := []string{fmt.Sprintf("value-based: %.2f base from %s", base, baseSource)}

	switch c.Product.BrandTier {
	case TierLuxury:
		price *= 1.25
		reasoning = append(reasoning, "luxury brand tier: +25%")
	case TierPremium:
		price *= 1.12
		reasoning = append(reasoning, "premium brand tier: +12%")
	}
	if c.Product.Collaboration {
		price *= 1.15
		reasoning = append(reasoning, "collaboration release: +15%")
	}
	if c.Product.LimitedRun {
		price *= 1.20
		reasoning = append(reasoning, "limited run: +20%")
	}
	if mult := conditionMultiplier(c.Condition); mult != 1.0 {
		price *= mult
		reasoning = append(reasoning, fmt.Sprintf("condition %s: x%.2f", c.Condition, mult))
	}

	return &quote{price: price, confidence: 82, reasoning: reasoning}, nil
}

// --- dynamic ---

type dynamicStrategy struct{}

func (s *dynamicStrategy) Type() StrategyType { return StrategyDynamic }

func (s *dynamicStrategy) Applicable(c *Context) bool {
	return c.InventoryAgeDays > 0 && c.MarketTrend != "" &&
		c.Snapshot != nil && c.Snapshot.LowestAsk > 0
}

// ageDiscount ramps linearly from 0% at 30 days in inventory to the full 30%
// at 90 days and beyond.
func ageDiscount(days int) float64 {
	if days <= 30 {
		return 0
	}
	return math.Min(0.30, float64(days-30)/60*0.30)
}

func trendAdjustment(t Trend) float64 {
	switch t {
	case TrendBullish:
		return 0.08
	case TrendBearish:
		return -0.08
	case TrendVolatile:
		return -0.05
	default:
		return 0
	}
}

func (s *dynamicStrategy) Calculate(c *Context) (*quote, error) {
	base := c.Snapshot.LowestAsk * 0.98
	discount := ageDiscount(c.InventoryAgeDays)
	adj := trendAdjustment(c.MarketTrend)
	price := base * (1 - discount) * (1 + adj)

	reasoning := []string{
		fmt.Sprintf("dynamic: %.2f base just below lowest ask %.2f", base, c.Snapshot.LowestAsk),
		fmt.Sprintf("%d days in inventory: -%.1f%% age discount", c.InventoryAgeDays, discount*100),
		fmt.Sprintf("%s market: %+.1f%% adjustment", c.MarketTrend, adj*100),
	}
	if mult := conditionMultiplier(c.Condition); mult != 1.0 {
		price *= mult
		reasoning = append(reasoning, fmt.Sprintf("condition %s: x%.2f", c.Condition, mult))
	}

	return &quote{price: price, confidence: 92, reasoning: reasoning}, nil
}
