package driven

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// CatalogStore persists products, categories and vendors.
type CatalogStore interface {
	// SaveProduct creates or updates a product.
	SaveProduct(ctx context.Context, product *domain.Product) error

	// GetProduct retrieves a product by ID.
	// Returns domain.ErrNotFound if the product does not exist.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// ListProducts returns every product, most popular first,
	// then oldest first. Matching scans candidates in this order.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// DeleteProduct removes a product with its prices and history.
	DeleteProduct(ctx context.Context, id string) error

	// IncrementPopularity atomically adds delta to a product's popularity
	// and returns the new score.
	IncrementPopularity(ctx context.Context, id string, delta int) (int, error)

	// SaveCategory creates or updates a category.
	SaveCategory(ctx context.Context, category *domain.Category) error

	// GetCategoryByName retrieves a category by its slug.
	// Returns domain.ErrNotFound if the category does not exist.
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// SaveVendor creates or updates a vendor.
	SaveVendor(ctx context.Context, vendor *domain.Vendor) error

	// ListVendors returns all vendors ordered by ID.
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
}
