package smartpricing

import (
	"context"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/modules/pricing"
	"github.com/g0tchi/soleflip-sub003/internal/worker"
)

// Service reprices inventory in bulk: it fetches a fresh market snapshot per
// item, classifies the market condition, and runs the pricing engine with a
// preset strategy order. Per-item failures never abort the batch.
type Service struct {
	pricer    *pricing.Engine
	snapshots domain.MarketSnapshotReader
	history   domain.PriceHistoryReader // optional, drives trend classification
	pool      *worker.Pool
	validate  *validator.Validate
	minChange float64
	log       zerolog.Logger
}

// NewService creates the orchestrator. The history reader may be nil, in
// which case every item is priced against a stable market.
func NewService(
	pricer *pricing.Engine,
	snapshots domain.MarketSnapshotReader,
	history domain.PriceHistoryReader,
	pool *worker.Pool,
	minChange float64,
	log zerolog.Logger,
) *Service {
	if pool == nil {
		pool = worker.New()
	}
	if minChange <= 0 {
		minChange = 1.00
	}
	return &Service{
		pricer:    pricer,
		snapshots: snapshots,
		history:   history,
		pool:      pool,
		validate:  validator.New(),
		minChange: minChange,
		log:       log.With().Str("module", "smartpricing").Logger(),
	}
}

// OptimizeBatch reprices all items and returns recommendations in input
// order, with per-item failures collected alongside.
func (s *Service) OptimizeBatch(ctx context.Context, items []BatchItem, opts Options) (*BatchResult, error) {
	opts.applyDefaults(s.minChange)
	if err := s.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid batch options: %w", err)
	}
	order, ok := presetOrders[opts.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown repricing strategy %q", opts.Strategy)
	}

	batchID := uuid.New().String()
	log := s.log.With().Str("batch_id", batchID).Logger()
	log.Info().
		Int("items", len(items)).
		Str("strategy", string(opts.Strategy)).
		Msg("Starting repricing batch")

	recs, errs := worker.Map(ctx, s.pool, len(items), func(ctx context.Context, i int) (Recommendation, error) {
		return s.repriceItem(ctx, items[i], order, opts)
	})

	result := &BatchResult{BatchID: batchID}
	for i := range recs {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("sku", items[i].Context.Product.SKU).Msg("Repricing failed for item")
			result.Failures = append(result.Failures, ItemFailure{
				Index:   i,
				SKU:     items[i].Context.Product.SKU,
				Err:     errs[i],
				Message: errs[i].Error(),
			})
			continue
		}
		result.Recommendations = append(result.Recommendations, recs[i])
	}

	log.Info().
		Int("repriced", len(result.Recommendations)).
		Int("failed", len(result.Failures)).
		Msg("Repricing batch completed")

	return result, nil
}

// repriceItem handles one unit: fresh snapshot, trend classification, margin
// modulation, pricing, and the min-change gate.
func (s *Service) repriceItem(ctx context.Context, item BatchItem, order []pricing.StrategyType, opts Options) (Recommendation, error) {
	c := item.Context
	sku := c.Product.SKU

	if s.snapshots != nil {
		snap, err := s.snapshots.GetSnapshot(ctx, sku)
		if err != nil {
			return Recommendation{}, fmt.Errorf("snapshot fetch for %q: %w", sku, err)
		}
		c.Snapshot = snap
	}

	trend := pricing.TrendStable
	if s.history != nil {
		asks, err := s.history.GetRecentAsks(ctx, sku, opts.TrendWindowDays)
		if err != nil {
			s.log.Warn().Err(err).Str("sku", sku).Msg("No ask history, assuming stable market")
		} else {
			trend = ClassifyCondition(asks)
		}
	}
	c.MarketTrend = trend

	if c.TargetMargin == nil {
		margin := modulatedMargin(trend)
		c.TargetMargin = &margin
	}

	priced, err := s.pricer.CalculatePrice(ctx, &c, order)
	if err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		SKU:             sku,
		OldPrice:        item.CurrentPrice,
		NewPrice:        priced.SuggestedPrice,
		Changed:         math.Abs(priced.SuggestedPrice-item.CurrentPrice) > opts.MinPriceChange,
		MarketCondition: trend,
		Pricing:         priced,
	}
	if !rec.Changed {
		rec.NewPrice = item.CurrentPrice
	}
	rec.ProfitDelta = rec.NewPrice - rec.OldPrice
	rec.SellProbability = sellProbability(rec.NewPrice, c.Snapshot)

	return rec, nil
}
