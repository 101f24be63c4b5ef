package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

// Ensure Analytics implements the interface.
var _ driving.AnalyticsService = (*Analytics)(nil)

// Analysis windows. Trends look back over the history window; the
// historical-low comparison treats the last day as "current".
const (
	TrendWindow   = 30 * 24 * time.Hour
	CurrentWindow = 24 * time.Hour

	// trendSample is how many points each end of the overall trend averages.
	trendSample = 10
)

// Analytics derives read-only views over prices and history.
type Analytics struct {
	catalog driven.CatalogStore
	prices  driven.PriceStore
	history driven.HistoryStore
	now     func() time.Time
}

// NewAnalytics creates an analytics service.
func NewAnalytics(catalog driven.CatalogStore, prices driven.PriceStore, history driven.HistoryStore) *Analytics {
	return &Analytics{
		catalog: catalog,
		prices:  prices,
		history: history,
		now:     time.Now,
	}
}

// AnalyzeProduct returns deals, trends and savings for a product.
func (a *Analytics) AnalyzeProduct(ctx context.Context, productID string) (*domain.ProductAnalysis, error) {
	product, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	prices, err := a.prices.ListPrices(ctx, driven.PriceFilter{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices for product %s", domain.ErrNotFound, productID)
	}

	now := a.now()
	history, err := a.history.ListHistory(ctx, driven.HistoryFilter{
		ProductID: productID,
		Since:     now.Add(-TrendWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	points := pricePoints(prices, history)

	analysis := &domain.ProductAnalysis{
		Product: *product,
		Prices:  prices,
		Deals: domain.DealSummary{
			AbsoluteBest:  AbsoluteBestPrice(prices),
			BestAvailable: BestAvailablePrice(prices),
			BestDiscount:  BestDiscount(prices),
		},
		Trends:      CalculateTrends(points),
		Savings:     SavingsVsVendors(prices),
		GeneratedAt: now,
	}
	analysis.Deals.HistoricalLow, analysis.Deals.AtHistoricalLow = HistoricalLow(points, now)
	return analysis, nil
}

// BestDeals returns in-stock discounted prices, biggest discount first.
func (a *Analytics) BestDeals(ctx context.Context, categoryID string, limit int) ([]domain.Deal, error) {
	prices, err := a.prices.ListPrices(ctx, driven.PriceFilter{CategoryID: categoryID, InStockOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	discounted := make([]domain.Price, 0, len(prices))
	for _, p := range prices {
		if p.DiscountPercentage != nil && p.DiscountPercentage.IsPositive() {
			discounted = append(discounted, p)
		}
	}
	sort.SliceStable(discounted, func(i, j int) bool {
		return discounted[i].DiscountPercentage.GreaterThan(*discounted[j].DiscountPercentage)
	})
	if limit > 0 && len(discounted) > limit {
		discounted = discounted[:limit]
	}

	names := productNames{catalog: a.catalog, cache: map[string]string{}}
	deals := make([]domain.Deal, 0, len(discounted))
	for _, p := range discounted {
		deals = append(deals, domain.Deal{ProductName: names.get(ctx, p.ProductID), Price: p})
	}
	return deals, nil
}

// DiscountAlerts returns in-stock prices updated within the window whose
// discount is at least minDiscount percent.
func (a *Analytics) DiscountAlerts(ctx context.Context, minDiscount float64, within time.Duration) ([]domain.PriceAlert, error) {
	prices, err := a.prices.ListPrices(ctx, driven.PriceFilter{
		InStockOnly:  true,
		UpdatedSince: a.now().Add(-within),
	})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	target := decimal.NewFromFloat(minDiscount)
	names := productNames{catalog: a.catalog, cache: map[string]string{}}
	var alerts []domain.PriceAlert
	for _, p := range prices {
		if p.DiscountPercentage == nil || p.DiscountPercentage.LessThan(target) {
			continue
		}
		alerts = append(alerts, domain.PriceAlert{
			ProductID:   p.ProductID,
			ProductName: names.get(ctx, p.ProductID),
			VendorID:    p.VendorID,
			Price:       p.Price,
			Discount:    p.DiscountPercentage,
			Reason:      fmt.Sprintf("%s%% off", p.DiscountPercentage.StringFixed(2)),
			ProductURL:  p.ProductURL,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Discount.GreaterThan(*alerts[j].Discount)
	})
	return alerts, nil
}

// TargetPriceAlerts returns in-stock prices for a product at or below
// target, cheapest first.
func (a *Analytics) TargetPriceAlerts(ctx context.Context, productID string, target decimal.Decimal) ([]domain.PriceAlert, error) {
	product, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	prices, err := a.prices.ListPrices(ctx, driven.PriceFilter{ProductID: productID, InStockOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	var alerts []domain.PriceAlert
	for _, p := range prices {
		if p.Price.GreaterThan(target) {
			continue
		}
		alerts = append(alerts, domain.PriceAlert{
			ProductID:   p.ProductID,
			ProductName: product.Name,
			VendorID:    p.VendorID,
			Price:       p.Price,
			Discount:    p.DiscountPercentage,
			Reason:      fmt.Sprintf("%s below target %s", target.Sub(p.Price).StringFixed(2), target.StringFixed(2)),
			ProductURL:  p.ProductURL,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Price.LessThan(alerts[j].Price)
	})
	return alerts, nil
}

// Freshness reports how current prices are.
func (a *Analytics) Freshness(ctx context.Context, productID string) (*domain.FreshnessReport, error) {
	prices, err := a.prices.ListPrices(ctx, driven.PriceFilter{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return FreshnessOf(prices, a.now()), nil
}

// ==================== Pure derivations ====================

// AbsoluteBestPrice returns the cheapest price regardless of stock.
func AbsoluteBestPrice(prices []domain.Price) *domain.Price {
	var best *domain.Price
	for i := range prices {
		if best == nil || prices[i].Price.LessThan(best.Price) {
			best = &prices[i]
		}
	}
	return best
}

// BestAvailablePrice returns the cheapest in-stock price.
func BestAvailablePrice(prices []domain.Price) *domain.Price {
	var best *domain.Price
	for i := range prices {
		if !prices[i].InStock() {
			continue
		}
		if best == nil || prices[i].Price.LessThan(best.Price) {
			best = &prices[i]
		}
	}
	return best
}

// BestDiscount returns the price with the largest discount.
func BestDiscount(prices []domain.Price) *domain.Price {
	var best *domain.Price
	for i := range prices {
		d := prices[i].DiscountPercentage
		if d == nil {
			continue
		}
		if best == nil || d.GreaterThan(*best.DiscountPercentage) {
			best = &prices[i]
		}
	}
	return best
}

// SavingsVsVendors compares the cheapest vendor with every other vendor.
// The percentage is relative to the other vendor's price.
// It returns nil with fewer than two prices.
func SavingsVsVendors(prices []domain.Price) *domain.SavingsReport {
	if len(prices) < 2 {
		return nil
	}
	sorted := append([]domain.Price(nil), prices...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price.LessThan(sorted[j].Price) })

	cheapest := sorted[0]
	report := &domain.SavingsReport{
		CheapestVendor: cheapest.VendorID,
		CheapestPrice:  cheapest.Price,
		MaxSavings:     decimal.Zero,
	}
	for _, p := range sorted[1:] {
		savings := p.Price.Sub(cheapest.Price)
		pct := decimal.Zero
		if p.Price.IsPositive() {
			pct = savings.Div(p.Price).Mul(decimal.NewFromInt(100)).Round(2)
		}
		report.Vendors = append(report.Vendors, domain.VendorSavings{
			VendorID: p.VendorID,
			Price:    p.Price,
			Savings:  savings.Round(2),
			Percent:  pct,
		})
		if savings.GreaterThan(report.MaxSavings) {
			report.MaxSavings = savings.Round(2)
		}
	}
	return report
}

// TrendDirection classifies the move from an older mean to a recent mean.
// Changes under the deadband are stable.
func TrendDirection(recent, older decimal.Decimal) (domain.Trend, float64) {
	if !older.IsPositive() {
		return domain.TrendInsufficientData, 0
	}
	change := recent.Sub(older).Div(older).Mul(decimal.NewFromInt(100)).InexactFloat64()
	// Classify on the unrounded change; only the reported figure is rounded.
	pct := math.Round(change*100) / 100
	switch {
	case math.Abs(change) < domain.TrendDeadband:
		return domain.TrendStable, pct
	case change > 0:
		return domain.TrendIncreasing, pct
	default:
		return domain.TrendDecreasing, pct
	}
}

// CalculateTrends derives per-vendor and overall trends from points in
// any order. Vendors compare their first and last point; the overall
// trend compares the mean of the newest points with the oldest ones.
func CalculateTrends(points []domain.PricePoint) domain.TrendReport {
	report := domain.TrendReport{DataPoints: len(points)}
	if len(points) < 2 {
		report.Overall = domain.TrendInsufficientData
		return report
	}

	sorted := append([]domain.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordedAt.Before(sorted[j].RecordedAt) })

	byVendor := map[string][]domain.PricePoint{}
	var order []string
	for _, p := range sorted {
		if _, ok := byVendor[p.VendorID]; !ok {
			order = append(order, p.VendorID)
		}
		byVendor[p.VendorID] = append(byVendor[p.VendorID], p)
	}
	sort.Strings(order)
	for _, v := range order {
		series := byVendor[v]
		if len(series) < 2 {
			continue
		}
		first, last := series[0].Price, series[len(series)-1].Price
		dir, pct := TrendDirection(last, first)
		report.Vendors = append(report.Vendors, domain.VendorTrend{
			VendorID:      v,
			Direction:     dir,
			FirstPrice:    first,
			LastPrice:     last,
			PercentChange: pct,
			DataPoints:    len(series),
		})
	}

	n := min(trendSample, len(sorted))
	report.Overall, report.PercentChange = TrendDirection(meanPrice(sorted[len(sorted)-n:]), meanPrice(sorted[:n]))
	return report
}

// HistoricalLow finds the lowest point and whether the best price seen in
// the current window matches it. It returns nil when no point is current.
func HistoricalLow(points []domain.PricePoint, now time.Time) (*domain.PricePoint, bool) {
	if len(points) == 0 {
		return nil, false
	}
	lowest := points[0]
	var currentBest *decimal.Decimal
	for _, p := range points {
		if p.Price.LessThan(lowest.Price) {
			lowest = p
		}
		if !p.RecordedAt.Before(now.Add(-CurrentWindow)) {
			if currentBest == nil || p.Price.LessThan(*currentBest) {
				price := p.Price
				currentBest = &price
			}
		}
	}
	if currentBest == nil {
		return nil, false
	}
	return &lowest, currentBest.LessThanOrEqual(lowest.Price)
}

// FreshnessOf classifies every price and aggregates age statistics.
func FreshnessOf(prices []domain.Price, now time.Time) *domain.FreshnessReport {
	report := &domain.FreshnessReport{Entries: make([]domain.FreshnessEntry, 0, len(prices))}
	if len(prices) == 0 {
		return report
	}

	total := 0.0
	report.NewestAgeHours = math.MaxFloat64
	for _, p := range prices {
		age := now.Sub(p.LastUpdated)
		hours := math.Round(age.Hours()*100) / 100
		status := domain.ClassifyFreshness(age)
		report.Entries = append(report.Entries, domain.FreshnessEntry{
			ProductID:   p.ProductID,
			VendorID:    p.VendorID,
			LastUpdated: p.LastUpdated,
			AgeHours:    hours,
			Status:      status,
		})
		switch status {
		case domain.FreshnessFresh:
			report.Fresh++
		case domain.FreshnessAging:
			report.Aging++
		case domain.FreshnessStale:
			report.Stale++
		}
		total += hours
		report.OldestAgeHours = math.Max(report.OldestAgeHours, hours)
		report.NewestAgeHours = math.Min(report.NewestAgeHours, hours)
	}
	report.Count = len(prices)
	report.AverageAgeHours = math.Round(total/float64(len(prices))*100) / 100
	return report
}

// pricePoints merges current prices and archived history into one series.
func pricePoints(prices []domain.Price, history []domain.PriceHistory) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(prices)+len(history))
	for _, h := range history {
		points = append(points, domain.PricePoint{VendorID: h.VendorID, Price: h.Price, RecordedAt: h.RecordedAt})
	}
	for _, p := range prices {
		points = append(points, domain.PricePoint{VendorID: p.VendorID, Price: p.Price, RecordedAt: p.LastUpdated})
	}
	return points
}

func meanPrice(points []domain.PricePoint) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(points))))
}

// productNames caches product names for one report.
type productNames struct {
	catalog driven.CatalogStore
	cache   map[string]string
}

func (n productNames) get(ctx context.Context, id string) string {
	if name, ok := n.cache[id]; ok {
		return name
	}
	name := id
	if p, err := n.catalog.GetProduct(ctx, id); err == nil {
		name = p.Name
	}
	n.cache[id] = name
	return name
}
