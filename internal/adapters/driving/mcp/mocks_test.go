package mcp

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

// mockAnalyticsService is a mock implementation of driving.AnalyticsService.
type mockAnalyticsService struct {
	analysis  *domain.ProductAnalysis
	deals     []domain.Deal
	alerts    []domain.PriceAlert
	freshness *domain.FreshnessReport
	err       error

	gotCategory    string
	gotLimit       int
	gotMinDiscount float64
	gotWithin      time.Duration
	gotTarget      decimal.Decimal
}

func (m *mockAnalyticsService) AnalyzeProduct(_ context.Context, _ string) (*domain.ProductAnalysis, error) {
	return m.analysis, m.err
}

func (m *mockAnalyticsService) BestDeals(_ context.Context, categoryID string, limit int) ([]domain.Deal, error) {
	m.gotCategory = categoryID
	m.gotLimit = limit
	return m.deals, m.err
}

func (m *mockAnalyticsService) DiscountAlerts(
	_ context.Context,
	minDiscount float64,
	within time.Duration,
) ([]domain.PriceAlert, error) {
	m.gotMinDiscount = minDiscount
	m.gotWithin = within
	return m.alerts, m.err
}

func (m *mockAnalyticsService) TargetPriceAlerts(
	_ context.Context,
	_ string,
	target decimal.Decimal,
) ([]domain.PriceAlert, error) {
	m.gotTarget = target
	return m.alerts, m.err
}

func (m *mockAnalyticsService) Freshness(_ context.Context, _ string) (*domain.FreshnessReport, error) {
	return m.freshness, m.err
}

// mockCatalogReader is a mock implementation of driving.CatalogReader.
type mockCatalogReader struct {
	products []domain.Product
	vendors  []domain.Vendor
	runs     []domain.ScraperRun
	err      error
	gotLimit int
}

func (m *mockCatalogReader) ListProducts(_ context.Context, limit int) ([]domain.Product, error) {
	m.gotLimit = limit
	return m.products, m.err
}

func (m *mockCatalogReader) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogReader) ListVendors(_ context.Context) ([]domain.Vendor, error) {
	return m.vendors, m.err
}

func (m *mockCatalogReader) ListRuns(_ context.Context, _ string, limit int) ([]domain.ScraperRun, error) {
	m.gotLimit = limit
	return m.runs, m.err
}

// mockLedgerService is a mock implementation of driving.LedgerService.
type mockLedgerService struct {
	history []domain.PriceHistory
	err     error
}

func (m *mockLedgerService) History(_ context.Context, _, _ string, _ int) ([]domain.PriceHistory, error) {
	return m.history, m.err
}

func (m *mockLedgerService) PruneHistory(_ context.Context) (int, error) {
	return 0, m.err
}

var (
	_ driving.AnalyticsService = (*mockAnalyticsService)(nil)
	_ driving.CatalogReader    = (*mockCatalogReader)(nil)
	_ driving.LedgerService    = (*mockLedgerService)(nil)
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amountPtr(s string) *decimal.Decimal {
	d := amount(s)
	return &d
}

func sampleAnalysis() *domain.ProductAnalysis {
	category := domain.CategoryHeadphones
	best := domain.Price{
		ProductID:          "p-1",
		VendorID:           "amazon",
		Price:              amount("248"),
		OriginalPrice:      amountPtr("349.99"),
		DiscountPercentage: amountPtr("29.14"),
		StockStatus:        domain.StockInStock,
		ProductURL:         "https://amazon.test/xm4",
		LastUpdated:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	other := domain.Price{
		ProductID:   "p-1",
		VendorID:    "bestbuy",
		Price:       amount("279.99"),
		StockStatus: domain.StockInStock,
	}
	return &domain.ProductAnalysis{
		Product: domain.Product{ID: "p-1", Name: "Sony WH-1000XM4", Brand: "Sony", CategoryID: &category, PopularityScore: 3},
		Prices:  []domain.Price{best, other},
		Deals: domain.DealSummary{
			AbsoluteBest:    &best,
			BestAvailable:   &best,
			BestDiscount:    &best,
			HistoricalLow:   &domain.PricePoint{VendorID: "amazon", Price: amount("259")},
			AtHistoricalLow: true,
		},
		Trends: domain.TrendReport{Overall: domain.TrendDecreasing, PercentChange: -10.8},
		Savings: &domain.SavingsReport{
			CheapestVendor: "amazon",
			CheapestPrice:  amount("248"),
			MaxSavings:     amount("31.99"),
		},
	}
}
