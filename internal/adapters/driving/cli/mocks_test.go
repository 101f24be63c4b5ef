package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

type mockCollector struct {
	summary    *domain.RunSummary
	err        error
	gotQueries []string
	gotVendors []string
}

func (m *mockCollector) Run(ctx context.Context, queries []string) (*domain.RunSummary, error) {
	return m.RunVendors(ctx, queries, nil)
}

func (m *mockCollector) RunVendors(_ context.Context, queries, vendorIDs []string) (*domain.RunSummary, error) {
	m.gotQueries = queries
	m.gotVendors = vendorIDs
	return m.summary, m.err
}

func (m *mockCollector) Status(_ context.Context, vendorID string) (*driving.CollectionStatus, error) {
	return &driving.CollectionStatus{VendorID: vendorID}, nil
}

type mockAnalytics struct {
	analysis  *domain.ProductAnalysis
	deals     []domain.Deal
	alerts    []domain.PriceAlert
	freshness *domain.FreshnessReport
	err       error

	gotCategory    string
	gotLimit       int
	gotMinDiscount float64
	gotWithin      time.Duration
	gotProduct     string
	gotTarget      decimal.Decimal
}

func (m *mockAnalytics) AnalyzeProduct(_ context.Context, productID string) (*domain.ProductAnalysis, error) {
	m.gotProduct = productID
	return m.analysis, m.err
}

func (m *mockAnalytics) BestDeals(_ context.Context, categoryID string, limit int) ([]domain.Deal, error) {
	m.gotCategory = categoryID
	m.gotLimit = limit
	return m.deals, m.err
}

func (m *mockAnalytics) DiscountAlerts(_ context.Context, minDiscount float64, within time.Duration) ([]domain.PriceAlert, error) {
	m.gotMinDiscount = minDiscount
	m.gotWithin = within
	return m.alerts, m.err
}

func (m *mockAnalytics) TargetPriceAlerts(_ context.Context, productID string, target decimal.Decimal) ([]domain.PriceAlert, error) {
	m.gotProduct = productID
	m.gotTarget = target
	return m.alerts, m.err
}

func (m *mockAnalytics) Freshness(_ context.Context, productID string) (*domain.FreshnessReport, error) {
	m.gotProduct = productID
	return m.freshness, m.err
}

type mockCatalog struct {
	products  []domain.Product
	vendors   []domain.Vendor
	runs      []domain.ScraperRun
	err       error
	gotLimit  int
	gotVendor string
}

func (m *mockCatalog) ListProducts(_ context.Context, limit int) ([]domain.Product, error) {
	m.gotLimit = limit
	return m.products, m.err
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) ListVendors(_ context.Context) ([]domain.Vendor, error) {
	return m.vendors, m.err
}

func (m *mockCatalog) ListRuns(_ context.Context, vendorID string, limit int) ([]domain.ScraperRun, error) {
	m.gotVendor = vendorID
	m.gotLimit = limit
	return m.runs, m.err
}

type mockLedger struct {
	history   []domain.PriceHistory
	pruned    int
	err       error
	gotVendor string
	gotDays   int
}

func (m *mockLedger) History(_ context.Context, _, vendorID string, days int) ([]domain.PriceHistory, error) {
	m.gotVendor = vendorID
	m.gotDays = days
	return m.history, m.err
}

func (m *mockLedger) PruneHistory(_ context.Context) (int, error) {
	return m.pruned, m.err
}

type mockSettings struct {
	cfg          *domain.Config
	err          error
	gotQueries   []string
	gotThreshold float64
}

func (m *mockSettings) Get() (*domain.Config, error) {
	return m.cfg, m.err
}

func (m *mockSettings) GetDefaults() domain.Config {
	return *m.cfg
}

func (m *mockSettings) SetQueries(queries []string) error {
	m.gotQueries = queries
	return m.err
}

func (m *mockSettings) SetSimilarityThreshold(threshold float64) error {
	m.gotThreshold = threshold
	return m.err
}

type mockScheduler struct {
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

var (
	_ driving.Collector        = (*mockCollector)(nil)
	_ driving.AnalyticsService = (*mockAnalytics)(nil)
	_ driving.CatalogReader    = (*mockCatalog)(nil)
	_ driving.LedgerService    = (*mockLedger)(nil)
	_ driving.SettingsService  = (*mockSettings)(nil)
	_ driving.Scheduler        = (*mockScheduler)(nil)
)

// setupServices installs s for the duration of a test.
func setupServices(s *Services) func() {
	old := Services{
		Collector:       collector,
		Analytics:       analyticsService,
		Catalog:         catalogReader,
		Ledger:          ledgerService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		BackgroundTasks: backgroundTasks,
		Close:           closeServices,
	}
	oldBuild := buildServices
	buildServices = nil
	SetServices(s)
	return func() {
		SetServices(&old)
		buildServices = oldBuild
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(ctx context.Context, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlagValues()
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlagValues() {
	runQueries, runVendors, runJSON = nil, nil, false
	analyzeJSON = false
	dealsCategory, dealsLimit, dealsJSON = "", 10, false
	alertsDiscount, alertsWithin, alertsProduct, alertsTarget, alertsJSON = 20, 24*time.Hour, "", "", false
	freshnessProduct, freshnessJSON = "", false
	productsLimit, productsJSON = 20, false
	runsVendor, runsLimit, runsJSON = "", 20, false
	historyDays, historyJSON = 0, false
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amountPtr(s string) *decimal.Decimal {
	d := amount(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}
