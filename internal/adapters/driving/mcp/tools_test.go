package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func newTestServer(t *testing.T, analytics *mockAnalyticsService, catalog *mockCatalogReader) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Analytics: analytics, Catalog: catalog, Ledger: &mockLedgerService{}})
	require.NoError(t, err)
	return server
}

func TestServer_handleAnalyzeProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("returns analysis", func(t *testing.T) {
		server := newTestServer(t, &mockAnalyticsService{analysis: sampleAnalysis()}, &mockCatalogReader{})

		_, output, err := server.handleAnalyzeProduct(ctx, nil, ProductInput{ProductID: "p-1"})

		require.NoError(t, err)
		assert.Equal(t, "Sony WH-1000XM4", output.Product.Name)
		assert.Equal(t, domain.CategoryHeadphones, output.Product.CategoryID)
		require.Len(t, output.Prices, 2)
		assert.Equal(t, "248.00", output.Prices[0].Price)
		assert.Equal(t, "349.99", output.Prices[0].OriginalPrice)
		assert.Equal(t, "29.14", output.Prices[0].Discount)
		assert.Equal(t, "2026-03-01T12:00:00Z", output.Prices[0].LastUpdated)
		assert.Empty(t, output.Prices[1].OriginalPrice)
		require.NotNil(t, output.BestDiscount)
		assert.Equal(t, "amazon", output.BestDiscount.VendorID)
		assert.Equal(t, "259.00", output.HistoricalLow)
		assert.True(t, output.AtHistoricalLow)
		assert.Equal(t, "decreasing", output.Trend)
		assert.Equal(t, "amazon", output.CheapestVendor)
		assert.Equal(t, "31.99", output.MaxSavings)
	})

	t.Run("propagates not found", func(t *testing.T) {
		server := newTestServer(t, &mockAnalyticsService{err: domain.ErrNotFound}, &mockCatalogReader{})

		_, _, err := server.handleAnalyzeProduct(ctx, nil, ProductInput{ProductID: "missing"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleBestDeals(t *testing.T) {
	ctx := context.Background()
	analysis := sampleAnalysis()
	analytics := &mockAnalyticsService{
		deals: []domain.Deal{{ProductName: "Sony WH-1000XM4", Price: analysis.Prices[0]}},
	}
	server := newTestServer(t, analytics, &mockCatalogReader{})

	_, output, err := server.handleBestDeals(ctx, nil, DealsInput{Category: "headphones"})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "Sony WH-1000XM4", output.Deals[0].ProductName)
	assert.Equal(t, "headphones", analytics.gotCategory)
	assert.Equal(t, defaultLimit, analytics.gotLimit)
}

func TestServer_handleDiscountAlerts_Defaults(t *testing.T) {
	ctx := context.Background()
	analytics := &mockAnalyticsService{
		alerts: []domain.PriceAlert{{
			ProductID:   "p-1",
			ProductName: "Sony WH-1000XM4",
			VendorID:    "amazon",
			Price:       amount("248"),
			Discount:    amountPtr("29.14"),
			Reason:      "29.14% off",
		}},
	}
	server := newTestServer(t, analytics, &mockCatalogReader{})

	_, output, err := server.handleDiscountAlerts(ctx, nil, DiscountAlertsInput{})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "248.00", output.Alerts[0].Price)
	assert.Equal(t, "29.14", output.Alerts[0].Discount)
	assert.Equal(t, defaultMinDiscount, analytics.gotMinDiscount)
	assert.Equal(t, 24*time.Hour, analytics.gotWithin)
}

func TestServer_handleTargetAlerts(t *testing.T) {
	ctx := context.Background()

	t.Run("parses target", func(t *testing.T) {
		analytics := &mockAnalyticsService{}
		server := newTestServer(t, analytics, &mockCatalogReader{})

		_, output, err := server.handleTargetAlerts(ctx, nil, TargetAlertsInput{ProductID: "p-1", TargetPrice: "250"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, "250", analytics.gotTarget.String())
	})

	t.Run("rejects bad target", func(t *testing.T) {
		server := newTestServer(t, &mockAnalyticsService{}, &mockCatalogReader{})

		_, _, err := server.handleTargetAlerts(ctx, nil, TargetAlertsInput{ProductID: "p-1", TargetPrice: "cheap"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleFreshness(t *testing.T) {
	analytics := &mockAnalyticsService{freshness: &domain.FreshnessReport{Count: 3, Fresh: 1, Aging: 1, Stale: 1, AverageAgeHours: 20}}
	server := newTestServer(t, analytics, &mockCatalogReader{})

	_, output, err := server.handleFreshness(context.Background(), nil, FreshnessInput{})

	require.NoError(t, err)
	assert.Equal(t, 3, output.Count)
	assert.Equal(t, 1, output.Stale)
	assert.Equal(t, 20.0, output.AverageAgeHours)
}

func TestServer_handleListProducts(t *testing.T) {
	catalog := &mockCatalogReader{products: []domain.Product{{ID: "p-1", Name: "iPad Pro", PopularityScore: 5}}}
	server := newTestServer(t, &mockAnalyticsService{}, catalog)

	_, output, err := server.handleListProducts(context.Background(), nil, ListProductsInput{Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "iPad Pro", output.Products[0].Name)
	assert.Empty(t, output.Products[0].CategoryID)
	assert.Equal(t, 5, catalog.gotLimit)
}

func TestServer_handleListRuns(t *testing.T) {
	secs := 42
	catalog := &mockCatalogReader{runs: []domain.ScraperRun{{
		ID:              "run-1",
		VendorID:        "walmart",
		Status:          domain.RunStatusFailed,
		ErrorsCount:     2,
		DurationSeconds: &secs,
		ErrorDetails:    map[string]any{"error": "cancelled"},
	}}}
	server := newTestServer(t, &mockAnalyticsService{}, catalog)

	_, output, err := server.handleListRuns(context.Background(), nil, RunsInput{})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, "failed", output.Runs[0].Status)
	assert.Equal(t, 42, output.Runs[0].DurationSeconds)
	assert.Equal(t, "cancelled", output.Runs[0].Error)
	assert.Empty(t, output.Runs[0].StartedAt)
}

func TestServer_handlePriceHistory(t *testing.T) {
	ledger := &mockLedgerService{history: []domain.PriceHistory{{
		VendorID:    "amazon",
		Price:       amount("278"),
		StockStatus: domain.StockInStock,
		RecordedAt:  time.Date(2026, 2, 27, 9, 30, 0, 0, time.UTC),
	}}}
	server, err := NewServer(&Ports{Analytics: &mockAnalyticsService{}, Catalog: &mockCatalogReader{}, Ledger: ledger})
	require.NoError(t, err)

	_, output, err := server.handlePriceHistory(context.Background(), nil, HistoryInput{ProductID: "p-1"})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, "278.00", output.History[0].Price)
	assert.Equal(t, "2026-02-27T09:30:00Z", output.History[0].RecordedAt)
}

func TestServer_handlePriceHistory_Error(t *testing.T) {
	ledger := &mockLedgerService{err: errors.New("db closed")}
	server, err := NewServer(&Ports{Analytics: &mockAnalyticsService{}, Catalog: &mockCatalogReader{}, Ledger: ledger})
	require.NoError(t, err)

	_, _, err = server.handlePriceHistory(context.Background(), nil, HistoryInput{ProductID: "p-1"})

	assert.ErrorContains(t, err, "db closed")
}

func TestLimitOrDefault(t *testing.T) {
	assert.Equal(t, defaultLimit, limitOrDefault(0))
	assert.Equal(t, defaultLimit, limitOrDefault(-3))
	assert.Equal(t, 7, limitOrDefault(7))
}
