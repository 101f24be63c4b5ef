package driving

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// CatalogReader exposes catalog and run records to outer surfaces.
type CatalogReader interface {
	// ListProducts returns up to limit products, most popular first.
	// A non-positive limit returns all.
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)

	// GetProduct retrieves a product by ID.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// ListVendors returns all known vendors.
	ListVendors(ctx context.Context) ([]domain.Vendor, error)

	// ListRuns returns recent scraper runs, optionally for one vendor.
	ListRuns(ctx context.Context, vendorID string, limit int) ([]domain.ScraperRun, error)
}

// LedgerService exposes price history and retention.
type LedgerService interface {
	// History returns archived prices for a product within the last days,
	// newest first. An empty vendorID covers all vendors.
	History(ctx context.Context, productID, vendorID string, days int) ([]domain.PriceHistory, error)

	// PruneHistory applies the retention policy and returns the number
	// of removed entries.
	PruneHistory(ctx context.Context) (int, error)
}
