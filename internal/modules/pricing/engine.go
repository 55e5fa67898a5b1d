package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

// Engine tries pricing strategies in order and applies the external rule
// layer on top of the first strategy that succeeds.
type Engine struct {
	strategies map[StrategyType]Strategy
	rules      domain.PricingRuleReader // optional
	round      bool
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRuleReader enables the external price-rule adjustment layer.
func WithRuleReader(rules domain.PricingRuleReader) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithPsychologicalRounding snaps final prices to retail-style endings
// (.95 under 20, .99 under 100, nearest 5 above).
func WithPsychologicalRounding() Option {
	return func(e *Engine) { e.round = true }
}

// NewEngine creates a pricing engine with all five strategies registered.
func NewEngine(log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		strategies: map[StrategyType]Strategy{
			StrategyCostPlus:    &costPlusStrategy{defaultMargin: defaultTargetMargin},
			StrategyMarketBased: &marketBasedStrategy{},
			StrategyCompetitive: &competitiveStrategy{defaultMargin: defaultTargetMargin},
			StrategyValueBased:  &valueBasedStrategy{},
			StrategyDynamic:     &dynamicStrategy{},
		},
		log: log.With().Str("module", "pricing").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculatePrice runs the strategies in the given order and returns the
// result of the first one whose preconditions hold. Fails with
// *domain.DataQualityError when the context carries no price source at all
// and *domain.NoStrategyError when no strategy applies.
func (e *Engine) CalculatePrice(ctx context.Context, c *Context, order []StrategyType) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("nil pricing context")
	}
	if !c.hasAnyPriceSource() {
		return nil, &domain.DataQualityError{
			EntityID: c.Product.SKU,
			Reason:   "context has no unit cost, market snapshot, or competitor prices",
		}
	}
	if len(order) == 0 {
		order = DefaultOrder
	}

	tried := make([]string, 0, len(order))
	for _, st := range order {
		strategy, ok := e.strategies[st]
		if !ok {
			return nil, fmt.Errorf("unknown pricing strategy %q", st)
		}
		tried = append(tried, string(st))
		if !strategy.Applicable(c) {
			continue
		}

		q, err := strategy.Calculate(c)
		if err != nil {
			return nil, fmt.Errorf("strategy %s failed for %q: %w", st, c.Product.SKU, err)
		}
		return e.finalize(ctx, c, st, q)
	}

	return nil, &domain.NoStrategyError{EntityID: c.Product.SKU, Tried: tried}
}

// finalize applies the rule layer and rounding, then assembles the immutable
// result with margins, position, and range.
func (e *Engine) finalize(ctx context.Context, c *Context, st StrategyType, q *quote) (*Result, error) {
	price := q.price
	reasoning := append([]string{}, q.reasoning...)

	if e.rules != nil {
		adjusted, ruleNotes, err := e.applyRules(ctx, c, price)
		if err != nil {
			return nil, err
		}
		price = adjusted
		reasoning = append(reasoning, ruleNotes...)
	}

	if e.round {
		rounded := psychologicalPrice(price)
		if rounded != price {
			reasoning = append(reasoning, fmt.Sprintf("rounded %.2f to %.2f", price, rounded))
			price = rounded
		}
	}

	price = roundCents(price)
	if price <= 0 {
		return nil, fmt.Errorf("strategy %s produced non-positive price %.2f for %q", st, price, c.Product.SKU)
	}

	result := &Result{
		SuggestedPrice:  price,
		StrategyUsed:    st,
		ConfidenceScore: q.confidence,
		Reasoning:       reasoning,
		MarketPosition:  marketPosition(c, price),
		PriceRange:      priceRange(price, q.confidence),
	}
	if c.UnitCost != nil && *c.UnitCost > 0 {
		cost := *c.UnitCost
		result.MarginPercent = (price - cost) / price * 100
		result.MarkupPercent = (price - cost) / cost * 100
	}

	e.log.Debug().
		Str("sku", c.Product.SKU).
		Str("strategy", string(st)).
		Float64("price", price).
		Msg("Price calculated")

	return result, nil
}

// applyRules fetches and applies external adjustment rules in descending
// priority order. A rule that would push the price non-positive is skipped.
func (e *Engine) applyRules(ctx context.Context, c *Context, price float64) (float64, []string, error) {
	rules, err := e.rules.GetActiveRules(ctx, domain.RuleQuery{
		Brand:     c.Product.Brand,
		Category:  c.Product.Category,
		Platform:  c.Platform,
		Condition: c.Condition,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load price rules for %q: %w", c.Product.SKU, err)
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	var notes []string
	for _, rule := range rules {
		adjusted := price
		switch rule.Type {
		case domain.AdjustPercent:
			adjusted = price * (1 + rule.Value/100)
		case domain.AdjustFixed:
			adjusted = price + rule.Value
		default:
			continue
		}
		if adjusted <= 0 {
			e.log.Warn().Str("rule", rule.Name).Float64("value", rule.Value).
				Msg("Skipping rule that would produce a non-positive price")
			continue
		}
		price = adjusted
		notes = append(notes, fmt.Sprintf("rule %q: %s %+.2f applied", rule.Name, rule.Type, rule.Value))
	}
	return price, notes, nil
}

// psychologicalPrice snaps a price to a retail ending: .95 under 20, .99
// under 100, nearest multiple of 5 at 100 and above.
func psychologicalPrice(price float64) float64 {
	switch {
	case price < 20:
		p := math.Floor(price) - 0.05
		if p <= 0 {
			return price
		}
		return p
	case price < 100:
		p := math.Floor(price) - 0.01
		if p <= 0 {
			return price
		}
		return p
	default:
		return math.Round(price/5) * 5
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// marketPosition places the final price against the current bid/ask band.
func marketPosition(c *Context, price float64) Position {
	if c.Snapshot == nil || c.Snapshot.LowestAsk <= 0 {
		return PositionCompetitive
	}
	if c.Snapshot.HighestBid > 0 && price <= c.Snapshot.HighestBid {
		return PositionBudget
	}
	if price >= c.Snapshot.LowestAsk {
		return PositionPremium
	}
	return PositionCompetitive
}

// priceRange widens with falling confidence: a 90-confidence quote gets a
// +-5% band, an 80-confidence quote +-10%.
func priceRange(price, confidence float64) Range {
	half := price * (100 - confidence) / 200
	return Range{
		Min: roundCents(price - half),
		Max: roundCents(price + half),
	}
}
