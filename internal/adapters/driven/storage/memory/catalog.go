package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// catalogStore implements driven.CatalogStore.
type catalogStore struct {
	store *Store
}

var _ driven.CatalogStore = (*catalogStore)(nil)

// SaveProduct creates or updates a product.
func (c *catalogStore) SaveProduct(_ context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return domain.ErrInvalidInput
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := *product
	if existing, ok := s.products[p.ID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
	return nil
}

// GetProduct retrieves a product by ID.
func (c *catalogStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// ListProducts returns every product, most popular first, then oldest first.
func (c *catalogStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.PopularityScore != b.PopularityScore {
			return a.PopularityScore > b.PopularityScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result, nil
}

// DeleteProduct removes a product with its prices and history.
func (c *catalogStore) DeleteProduct(_ context.Context, id string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	for key := range s.prices {
		if key.productID == id {
			delete(s.prices, key)
		}
	}
	kept := s.history[:0]
	for _, h := range s.history {
		if h.ProductID != id {
			kept = append(kept, h)
		}
	}
	s.history = kept
	return nil
}

// IncrementPopularity adds delta to a product's popularity.
func (c *catalogStore) IncrementPopularity(_ context.Context, id string, delta int) (int, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	p.PopularityScore += delta
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return p.PopularityScore, nil
}

// SaveCategory creates or updates a category.
func (c *catalogStore) SaveCategory(_ context.Context, category *domain.Category) error {
	if category == nil || category.ID == "" || category.Name == "" {
		return domain.ErrInvalidInput
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.categories {
		if existing.Name == category.Name && id != category.ID {
			return fmt.Errorf("%w: category %s", domain.ErrAlreadyExists, category.Name)
		}
	}
	s.categories[category.ID] = *category
	return nil
}

// GetCategoryByName retrieves a category by its slug.
func (c *catalogStore) GetCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cat := range s.categories {
		if cat.Name == name {
			return &cat, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListCategories returns all categories ordered by name.
func (c *catalogStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		result = append(result, cat)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// SaveVendor creates or updates a vendor.
func (c *catalogStore) SaveVendor(_ context.Context, vendor *domain.Vendor) error {
	if vendor == nil || vendor.ID == "" {
		return domain.ErrInvalidInput
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[vendor.ID] = *vendor
	return nil
}

// ListVendors returns all vendors ordered by ID.
func (c *catalogStore) ListVendors(_ context.Context) ([]domain.Vendor, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
