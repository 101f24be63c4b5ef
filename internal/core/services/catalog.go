package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogReader = (*CatalogService)(nil)

// CatalogService exposes catalog and run records read-only.
type CatalogService struct {
	catalog driven.CatalogStore
	runs    driven.RunStore
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog driven.CatalogStore, runs driven.RunStore) *CatalogService {
	return &CatalogService{catalog: catalog, runs: runs}
}

// ListProducts returns up to limit products, most popular first.
func (s *CatalogService) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	return s.catalog.GetProduct(ctx, id)
}

// ListVendors returns all known vendors.
func (s *CatalogService) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.catalog.ListVendors(ctx)
}

// ListRuns returns recent runs, optionally for one vendor.
func (s *CatalogService) ListRuns(ctx context.Context, vendorID string, limit int) ([]domain.ScraperRun, error) {
	return s.runs.ListRuns(ctx, driven.RunFilter{VendorID: vendorID, Limit: limit})
}

// SeedCategories makes sure the default categories exist.
func SeedCategories(ctx context.Context, catalog driven.CatalogStore) error {
	for _, c := range domain.DefaultCategories() {
		_, err := catalog.GetCategoryByName(ctx, c.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get category %s: %w", c.Name, err)
		}
		if err := catalog.SaveCategory(ctx, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	return nil
}
