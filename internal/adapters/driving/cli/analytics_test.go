package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func sampleAnalysis() *domain.ProductAnalysis {
	best := domain.Price{
		ProductID:          "p-1",
		VendorID:           "amazon",
		Price:              amount("248"),
		OriginalPrice:      amountPtr("349.99"),
		DiscountPercentage: amountPtr("29.14"),
		StockStatus:        domain.StockInStock,
	}
	other := domain.Price{ProductID: "p-1", VendorID: "bestbuy", Price: amount("279.99"), StockStatus: domain.StockInStock}
	return &domain.ProductAnalysis{
		Product: domain.Product{ID: "p-1", Name: "Sony WH-1000XM4", Brand: "Sony", CategoryID: strPtr("headphones")},
		Prices:  []domain.Price{best, other},
		Deals: domain.DealSummary{
			AbsoluteBest:    &best,
			BestAvailable:   &best,
			BestDiscount:    &best,
			HistoricalLow:   &domain.PricePoint{VendorID: "amazon", Price: amount("248")},
			AtHistoricalLow: true,
		},
		Trends: domain.TrendReport{Overall: domain.TrendDecreasing, PercentChange: -10.8, DataPoints: 4},
		Savings: &domain.SavingsReport{
			CheapestVendor: "amazon",
			CheapestPrice:  amount("248"),
			Vendors: []domain.VendorSavings{
				{VendorID: "bestbuy", Price: amount("279.99"), Savings: amount("31.99"), Percent: amount("11.43")},
			},
			MaxSavings: amount("31.99"),
		},
	}
}

func TestAnalyzeCmd_PrintsAnalysis(t *testing.T) {
	mock := &mockAnalytics{analysis: sampleAnalysis()}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "analyze", "p-1")

	require.NoError(t, err)
	assert.Equal(t, "p-1", mock.gotProduct)
	assert.Contains(t, out, "Sony WH-1000XM4")
	assert.Contains(t, out, "$248.00")
	assert.Contains(t, out, "$349.99")
	assert.Contains(t, out, "29.14%")
	assert.Contains(t, out, "Best discount: $248.00 at amazon (29.14% off)")
	assert.Contains(t, out, "(at historical low)")
	assert.Contains(t, out, "decreasing (-10.80% over 4 data points)")
	assert.Contains(t, out, "vs bestbuy: save $31.99 (11.43%)")
}

func TestAnalyzeCmd_NoPrices(t *testing.T) {
	mock := &mockAnalytics{analysis: &domain.ProductAnalysis{
		Product: domain.Product{ID: "p-2", Name: "iPad Pro"},
		Trends:  domain.TrendReport{Overall: domain.TrendInsufficientData},
	}}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "analyze", "p-2")

	require.NoError(t, err)
	assert.Contains(t, out, "No prices collected yet.")
}

func TestAnalyzeCmd_RequiresArg(t *testing.T) {
	cleanup := setupServices(&Services{Analytics: &mockAnalytics{}})
	defer cleanup()

	_, err := executeCommand(context.Background(), "analyze")

	assert.Error(t, err)
}

func TestAnalyzeCmd_NotFound(t *testing.T) {
	cleanup := setupServices(&Services{Analytics: &mockAnalytics{err: domain.ErrNotFound}})
	defer cleanup()

	_, err := executeCommand(context.Background(), "analyze", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDealsCmd(t *testing.T) {
	analysis := sampleAnalysis()
	mock := &mockAnalytics{deals: []domain.Deal{{ProductName: "Sony WH-1000XM4", Price: analysis.Prices[0]}}}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "deals", "--category", "headphones", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, "headphones", mock.gotCategory)
	assert.Equal(t, 5, mock.gotLimit)
	assert.Contains(t, out, "Sony WH-1000XM4")
	assert.Contains(t, out, "29.14%")
}

func TestDealsCmd_Empty(t *testing.T) {
	mock := &mockAnalytics{}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "deals")

	require.NoError(t, err)
	assert.Contains(t, out, "No deals found.")
	assert.Equal(t, 10, mock.gotLimit)
	assert.Empty(t, mock.gotCategory)
}

func TestAlertsCmd_DiscountDefaults(t *testing.T) {
	mock := &mockAnalytics{alerts: []domain.PriceAlert{{
		ProductName: "JBL Charge 5",
		VendorID:    "walmart",
		Price:       amount("119.95"),
		Reason:      "25.00% off",
	}}}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "alerts")

	require.NoError(t, err)
	assert.Equal(t, 20.0, mock.gotMinDiscount)
	assert.Equal(t, 24*time.Hour, mock.gotWithin)
	assert.Contains(t, out, "JBL Charge 5")
	assert.Contains(t, out, "$119.95")
	assert.Contains(t, out, "25.00% off")
}

func TestAlertsCmd_DiscountFlags(t *testing.T) {
	mock := &mockAnalytics{}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "alerts", "--discount", "35", "--within", "6h")

	require.NoError(t, err)
	assert.Equal(t, 35.0, mock.gotMinDiscount)
	assert.Equal(t, 6*time.Hour, mock.gotWithin)
	assert.Contains(t, out, "No alerts.")
}

func TestAlertsCmd_TargetPrice(t *testing.T) {
	mock := &mockAnalytics{}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	_, err := executeCommand(context.Background(), "alerts", "--product", "p-1", "--target", "199.99")

	require.NoError(t, err)
	assert.Equal(t, "p-1", mock.gotProduct)
	assert.Equal(t, "199.99", mock.gotTarget.String())
}

func TestAlertsCmd_InvalidTarget(t *testing.T) {
	cleanup := setupServices(&Services{Analytics: &mockAnalytics{}})
	defer cleanup()

	_, err := executeCommand(context.Background(), "alerts", "--product", "p-1", "--target", "cheap")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target price")
}

func TestFreshnessCmd(t *testing.T) {
	mock := &mockAnalytics{freshness: &domain.FreshnessReport{
		Entries: []domain.FreshnessEntry{
			{ProductID: "p-1", VendorID: "amazon", AgeHours: 2, Status: domain.FreshnessFresh},
			{ProductID: "p-1", VendorID: "walmart", AgeHours: 30, Status: domain.FreshnessStale},
		},
		Count:           2,
		Fresh:           1,
		Stale:           1,
		AverageAgeHours: 16,
		OldestAgeHours:  30,
	}}
	cleanup := setupServices(&Services{Analytics: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "freshness", "--product", "p-1")

	require.NoError(t, err)
	assert.Equal(t, "p-1", mock.gotProduct)
	assert.Contains(t, out, "stale")
	assert.Contains(t, out, "2 prices: 1 fresh, 0 aging, 1 stale (average age 16.0h, oldest 30.0h)")
}

func TestFreshnessCmd_Empty(t *testing.T) {
	cleanup := setupServices(&Services{Analytics: &mockAnalytics{freshness: &domain.FreshnessReport{}}})
	defer cleanup()

	out, err := executeCommand(context.Background(), "freshness")

	require.NoError(t, err)
	assert.Contains(t, out, "No prices collected yet.")
}

func TestAnalyticsCommands_ServiceNotConfigured(t *testing.T) {
	cleanup := setupServices(&Services{})
	defer cleanup()

	for _, args := range [][]string{{"analyze", "p-1"}, {"deals"}, {"alerts"}, {"freshness"}} {
		_, err := executeCommand(context.Background(), args...)
		require.Error(t, err, args[0])
		assert.Contains(t, err.Error(), "analytics service not configured")
	}
}
