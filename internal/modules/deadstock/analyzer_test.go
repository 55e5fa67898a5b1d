package deadstock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
)

func f(v float64) *float64 { return &v }

func newTestAnalyzer(forecaster DemandForecaster) *Analyzer {
	return NewAnalyzer(forecaster, 0, zerolog.Nop())
}

func TestAnalyze_OldUnderwaterItemIsCritical(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	items := []Item{{
		ItemID:             "yeezy-350",
		PurchasePrice:      190,
		CurrentMarketPrice: f(145),
		DaysInInventory:    245,
	}}

	report, err := analyzer.Analyze(context.Background(), items, nil)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	scored := report.Items[0]
	assert.Equal(t, RiskCritical, scored.RiskLevel)
	assert.Equal(t, 45.0, scored.PotentialLoss)
	assert.Equal(t, 190.0, scored.LockedCapital)
	assert.Contains(t, scored.RecommendedActions[0], "liquidation")
	assert.LessOrEqual(t, scored.RiskScore, 1.0)
}

func TestAnalyze_ScoreMonotonicInAge(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	scoreAt := func(days int) float64 {
		report, err := analyzer.Analyze(context.Background(), []Item{{
			ItemID:             "sku-1",
			PurchasePrice:      100,
			CurrentMarketPrice: f(110),
			DaysInInventory:    days,
			RecentSales:        5,
			ExpectedSales:      10,
		}}, nil)
		require.NoError(t, err)
		return report.Items[0].RiskScore
	}

	prev := -1.0
	for days := 0; days <= 400; days += 20 {
		score := scoreAt(days)
		assert.GreaterOrEqual(t, score, prev, "days=%d", days)
		prev = score
	}
}

func TestAnalyze_RiskTiers(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	tests := []struct {
		name string
		item Item
		want RiskLevel
	}{
		{
			name: "fresh fast seller is hot",
			item: Item{ItemID: "a", PurchasePrice: 100, CurrentMarketPrice: f(120),
				DaysInInventory: 10, RecentSales: 30, ExpectedSales: 30},
			want: RiskHot,
		},
		{
			name: "slowing mid-age item is warm",
			item: Item{ItemID: "b", PurchasePrice: 100, CurrentMarketPrice: f(110),
				DaysInInventory: 90, RecentSales: 15, ExpectedSales: 30},
			want: RiskWarm,
		},
		{
			name: "stalled aging item is cold",
			item: Item{ItemID: "c", PurchasePrice: 100, CurrentMarketPrice: f(105),
				DaysInInventory: 150, RecentSales: 5, ExpectedSales: 30},
			want: RiskCold,
		},
		{
			name: "no sales and sliding price is dead",
			item: Item{ItemID: "d", PurchasePrice: 100, CurrentMarketPrice: f(50),
				DaysInInventory: 170, RecentSales: 0, ExpectedSales: 30},
			want: RiskDead,
		},
		{
			name: "past age threshold escalates regardless of score",
			item: Item{ItemID: "e", PurchasePrice: 100, CurrentMarketPrice: f(120),
				DaysInInventory: 181, RecentSales: 30, ExpectedSales: 30},
			want: RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := analyzer.Analyze(context.Background(), []Item{tt.item}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Items[0].RiskLevel)
		})
	}
}

func TestAnalyze_TrendFactorFromAskHistory(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	base := Item{
		ItemID:          "sku-1",
		PurchasePrice:   100,
		DaysInInventory: 30,
		RecentSales:     10,
		ExpectedSales:   10,
	}

	declining := base
	declining.RecentAsks = []float64{200, 180, 160, 140}
	rising := base
	rising.RecentAsks = []float64{140, 160, 180, 200}

	reportDecl, err := analyzer.Analyze(context.Background(), []Item{declining}, nil)
	require.NoError(t, err)
	reportRise, err := analyzer.Analyze(context.Background(), []Item{rising}, nil)
	require.NoError(t, err)

	assert.Greater(t, reportDecl.Items[0].RiskScore, reportRise.Items[0].RiskScore)
	// A rising price contributes nothing to risk.
	assert.InDelta(t, 0.3*30.0/180.0, reportRise.Items[0].RiskScore, 1e-9)
}

func TestAnalyze_FinancialImpactByTier(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	items := []Item{
		{ItemID: "hot", PurchasePrice: 120, CurrentMarketPrice: f(150),
			DaysInInventory: 5, RecentSales: 20, ExpectedSales: 20},
		{ItemID: "crit-1", PurchasePrice: 190, CurrentMarketPrice: f(145), DaysInInventory: 245},
		{ItemID: "crit-2", PurchasePrice: 210, CurrentMarketPrice: f(180), DaysInInventory: 300},
	}

	report, err := analyzer.Analyze(context.Background(), items, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.RiskSummary[RiskHot])
	assert.Equal(t, 2, report.RiskSummary[RiskCritical])

	assert.Equal(t, 520.0, report.FinancialImpact.LockedCapital)
	assert.Equal(t, 75.0, report.FinancialImpact.PotentialLoss)

	crit := report.FinancialImpact.ByTier[RiskCritical]
	assert.Equal(t, 2, crit.Count)
	assert.Equal(t, 400.0, crit.LockedCapital)
	assert.Equal(t, 75.0, crit.PotentialLoss)

	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "liquidation")
}

func TestAnalyze_NegativeWeightsRejected(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	_, err := analyzer.Analyze(context.Background(), nil, &Weights{Age: -1, Velocity: 1, Trend: 0})
	assert.Error(t, err)
}

type stubForecaster struct {
	demand float64
	err    error
	calls  int
}

func (s *stubForecaster) ExpectedDemand(context.Context, string, domain.Series, int) (float64, error) {
	s.calls++
	return s.demand, s.err
}

func TestAnalyze_ForecasterDrivesVelocity(t *testing.T) {
	history := make(domain.Series, 40)
	for i := range history {
		history[i] = domain.Point{
			Date:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Value: 1,
		}
	}

	// Forecast expects 30 units over the window; the item sold 30.
	fc := &stubForecaster{demand: 30}
	analyzer := newTestAnalyzer(fc)

	report, err := analyzer.Analyze(context.Background(), []Item{{
		ItemID:             "sku-1",
		PurchasePrice:      100,
		CurrentMarketPrice: f(110),
		DaysInInventory:    9,
		RecentSales:        30,
		SalesHistory:       history,
	}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, fc.calls)
	// Velocity factor 0, trend 0, age 9/180: HOT.
	assert.Equal(t, RiskHot, report.Items[0].RiskLevel)
	assert.InDelta(t, 0.3*9.0/180.0, report.Items[0].RiskScore, 1e-9)
}

func TestAnalyze_ForecasterFailureFallsBackToAverage(t *testing.T) {
	history := make(domain.Series, 10)
	for i := range history {
		history[i] = domain.Point{
			Date:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Value: 1, // average 1/day -> expected 30 over the window
		}
	}

	fc := &stubForecaster{err: errors.New("too little history")}
	analyzer := newTestAnalyzer(fc)

	report, err := analyzer.Analyze(context.Background(), []Item{{
		ItemID:             "sku-1",
		PurchasePrice:      100,
		CurrentMarketPrice: f(110),
		DaysInInventory:    9,
		RecentSales:        15, // half of the expected 30
		SalesHistory:       history,
	}}, nil)
	require.NoError(t, err)

	// Velocity factor 0.5 at weight 0.4, plus age 9/180 at weight 0.3.
	assert.InDelta(t, 0.4*0.5+0.3*9.0/180.0, report.Items[0].RiskScore, 1e-9)
}
