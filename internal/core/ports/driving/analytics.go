package driving

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// AnalyticsService derives read-only views over prices and history.
type AnalyticsService interface {
	// AnalyzeProduct returns deals, trends and savings for a product.
	AnalyzeProduct(ctx context.Context, productID string) (*domain.ProductAnalysis, error)

	// BestDeals returns in-stock discounted prices, biggest discount first.
	// An empty categoryID means all categories.
	BestDeals(ctx context.Context, categoryID string, limit int) ([]domain.Deal, error)

	// DiscountAlerts returns recently updated in-stock prices whose
	// discount is at least minDiscount percent.
	DiscountAlerts(ctx context.Context, minDiscount float64, within time.Duration) ([]domain.PriceAlert, error)

	// TargetPriceAlerts returns in-stock prices for a product at or below target.
	TargetPriceAlerts(ctx context.Context, productID string, target decimal.Decimal) ([]domain.PriceAlert, error)

	// Freshness reports how current prices are. An empty productID covers all products.
	Freshness(ctx context.Context, productID string) (*domain.FreshnessReport, error)
}
