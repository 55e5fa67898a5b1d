package smartpricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/internal/modules/pricing"
	"github.com/g0tchi/soleflip-sub003/internal/worker"
)

type stubSnapshotReader struct {
	snapshots map[string]*domain.MarketSnapshot
	errs      map[string]error
}

func (s *stubSnapshotReader) GetSnapshot(_ context.Context, entityID string) (*domain.MarketSnapshot, error) {
	if err := s.errs[entityID]; err != nil {
		return nil, err
	}
	snap, ok := s.snapshots[entityID]
	if !ok {
		return nil, &domain.NotFoundError{EntityID: entityID}
	}
	return snap, nil
}

type stubAskHistory struct {
	asks map[string][]float64
}

func (s *stubAskHistory) GetRecentAsks(_ context.Context, entityID string, _ int) ([]float64, error) {
	asks, ok := s.asks[entityID]
	if !ok {
		return nil, errors.New("no history")
	}
	return asks, nil
}

func newTestService(snapshots domain.MarketSnapshotReader, history domain.PriceHistoryReader) *Service {
	pricer := pricing.NewEngine(zerolog.Nop())
	pool := worker.New(worker.WithWorkers(3))
	return NewService(pricer, snapshots, history, pool, 1.00, zerolog.Nop())
}

func TestClassifyCondition(t *testing.T) {
	tests := []struct {
		name string
		asks []float64
		want pricing.Trend
	}{
		{"too few points", []float64{100, 105}, pricing.TrendStable},
		{"flat series", []float64{100, 100.5, 99.8, 100.2}, pricing.TrendStable},
		{"steady climb", []float64{100, 105, 110, 116}, pricing.TrendBullish},
		{"steady decline", []float64{100, 95, 90, 86}, pricing.TrendBearish},
		{"wild swings", []float64{100, 120, 95, 125}, pricing.TrendVolatile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCondition(tt.asks))
		})
	}
}

func TestModulatedMargin(t *testing.T) {
	assert.Equal(t, 25.0, modulatedMargin(pricing.TrendBullish))
	assert.Equal(t, 17.0, modulatedMargin(pricing.TrendBearish))
	assert.Equal(t, 22.0, modulatedMargin(pricing.TrendVolatile))
	assert.Equal(t, 20.0, modulatedMargin(pricing.TrendStable))
}

func TestSellProbability(t *testing.T) {
	snap := &domain.MarketSnapshot{LowestAsk: 200, HighestBid: 160, TradeVelocity30: 10}

	atBid := sellProbability(150, snap)
	belowMid := sellProbability(175, snap)
	belowAsk := sellProbability(195, snap)
	aboveAsk := sellProbability(240, snap)

	assert.Equal(t, 0.95, atBid)
	assert.Greater(t, atBid, belowMid)
	assert.Greater(t, belowMid, belowAsk)
	assert.Greater(t, belowAsk, aboveAsk)
	assert.GreaterOrEqual(t, aboveAsk, 0.05)

	assert.Equal(t, 0.5, sellProbability(100, nil))
}

func TestOptimizeBatch_IsolatesSnapshotFailure(t *testing.T) {
	snapshots := &stubSnapshotReader{snapshots: map[string]*domain.MarketSnapshot{}}
	items := make([]BatchItem, 10)
	for i := range items {
		sku := fmt.Sprintf("sku-%d", i)
		items[i] = BatchItem{
			Context:      pricing.Context{Product: pricing.Product{SKU: sku}},
			CurrentPrice: 150,
		}
		if i == 5 {
			continue // no snapshot registered: reader returns NotFoundError
		}
		snapshots.snapshots[sku] = &domain.MarketSnapshot{
			LowestAsk: 200, HighestBid: 170, TradeVelocity30: 25, AskCount: 10,
		}
	}

	svc := newTestService(snapshots, nil)
	result, err := svc.OptimizeBatch(context.Background(), items, Options{Strategy: ProfitMaximization})
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Len(t, result.Recommendations, 9)
	require.Len(t, result.Failures, 1)

	failure := result.Failures[0]
	assert.Equal(t, 5, failure.Index)
	assert.Equal(t, "sku-5", failure.SKU)
	var notFound *domain.NotFoundError
	assert.True(t, errors.As(failure.Err, &notFound))
}

func TestOptimizeBatch_PreservesInputOrder(t *testing.T) {
	snapshots := &stubSnapshotReader{snapshots: map[string]*domain.MarketSnapshot{}}
	var items []BatchItem
	for i := 0; i < 6; i++ {
		sku := fmt.Sprintf("sku-%d", i)
		snapshots.snapshots[sku] = &domain.MarketSnapshot{
			LowestAsk: 100 + float64(i)*10, HighestBid: 80, TradeVelocity30: 25,
		}
		items = append(items, BatchItem{
			Context:      pricing.Context{Product: pricing.Product{SKU: sku}},
			CurrentPrice: 50,
		})
	}

	svc := newTestService(snapshots, nil)
	result, err := svc.OptimizeBatch(context.Background(), items, Options{})
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 6)
	for i, rec := range result.Recommendations {
		assert.Equal(t, fmt.Sprintf("sku-%d", i), rec.SKU)
	}
}

func TestOptimizeBatch_MinChangeThreshold(t *testing.T) {
	// Fast mover on a 200 ask prices at 190; current price 189.50 is within
	// the 1.00 threshold.
	snapshots := &stubSnapshotReader{snapshots: map[string]*domain.MarketSnapshot{
		"sku-hold": {LowestAsk: 200, HighestBid: 170, TradeVelocity30: 25},
		"sku-move": {LowestAsk: 200, HighestBid: 170, TradeVelocity30: 25},
	}}
	items := []BatchItem{
		{Context: pricing.Context{Product: pricing.Product{SKU: "sku-hold"}}, CurrentPrice: 189.50},
		{Context: pricing.Context{Product: pricing.Product{SKU: "sku-move"}}, CurrentPrice: 240},
	}

	svc := newTestService(snapshots, nil)
	result, err := svc.OptimizeBatch(context.Background(), items, Options{Strategy: ProfitMaximization})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)

	hold := result.Recommendations[0]
	assert.False(t, hold.Changed)
	assert.Equal(t, 189.50, hold.NewPrice)
	assert.Equal(t, 0.0, hold.ProfitDelta)

	move := result.Recommendations[1]
	assert.True(t, move.Changed)
	assert.Equal(t, 190.0, move.NewPrice)
	assert.Equal(t, -50.0, move.ProfitDelta)
}

func TestOptimizeBatch_MarginFollowsMarketCondition(t *testing.T) {
	cost := 100.0
	history := &stubAskHistory{asks: map[string][]float64{
		"sku-bull": {100, 105, 110, 116},
		"sku-bear": {100, 95, 90, 86},
	}}
	// No snapshots wired: cost-plus is the only applicable strategy, so the
	// modulated target margin decides the price.
	svcPricer := pricing.NewEngine(zerolog.Nop())
	svc := NewService(svcPricer, nil, history, worker.New(), 1.00, zerolog.Nop())

	items := []BatchItem{
		{Context: pricing.Context{Product: pricing.Product{SKU: "sku-bull"}, UnitCost: &cost}, CurrentPrice: 100},
		{Context: pricing.Context{Product: pricing.Product{SKU: "sku-bear"}, UnitCost: &cost}, CurrentPrice: 100},
	}

	result, err := svc.OptimizeBatch(context.Background(), items, Options{Strategy: ProfitMaximization})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)

	bull := result.Recommendations[0]
	bear := result.Recommendations[1]
	assert.Equal(t, pricing.TrendBullish, bull.MarketCondition)
	assert.Equal(t, pricing.TrendBearish, bear.MarketCondition)
	// 100/(1-0.25) vs 100/(1-0.17).
	assert.Equal(t, 133.33, bull.NewPrice)
	assert.Equal(t, 120.48, bear.NewPrice)
	assert.Greater(t, bull.NewPrice, bear.NewPrice)
}

func TestOptimizeBatch_UnknownStrategy(t *testing.T) {
	svc := newTestService(&stubSnapshotReader{}, nil)
	_, err := svc.OptimizeBatch(context.Background(), nil, Options{Strategy: "yolo"})
	assert.Error(t, err)
}
