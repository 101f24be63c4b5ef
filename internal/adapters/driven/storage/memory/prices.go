package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// priceStore implements driven.PriceStore.
type priceStore struct {
	store *Store
}

var _ driven.PriceStore = (*priceStore)(nil)

// GetPrice retrieves the price for a (product, vendor) pair.
func (p *priceStore) GetPrice(_ context.Context, productID, vendorID string) (*domain.Price, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[priceKey{productID, vendorID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &price, nil
}

// SavePrice creates or replaces the price for its (product, vendor) pair.
// The first stored ID and CreatedAt of a pair are kept.
func (p *priceStore) SavePrice(ctx context.Context, price *domain.Price) error {
	return p.ReplacePrice(ctx, price, nil)
}

// ReplacePrice saves price and appends archived under one lock.
func (p *priceStore) ReplacePrice(_ context.Context, price *domain.Price, archived *domain.PriceHistory) error {
	if price == nil || price.ProductID == "" || price.VendorID == "" {
		return domain.ErrInvalidInput
	}
	if archived != nil && archived.ID == "" {
		return domain.ErrInvalidInput
	}
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[price.ProductID]; !ok {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, price.ProductID)
	}
	if archived != nil {
		s.history = append(s.history, *archived)
	}

	key := priceKey{price.ProductID, price.VendorID}
	stored := *price
	if existing, ok := s.prices[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	s.prices[key] = stored
	return nil
}

// ListPrices returns prices matching the filter ordered by price ascending.
func (p *priceStore) ListPrices(_ context.Context, filter driven.PriceFilter) ([]domain.Price, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Price
	for key, price := range s.prices {
		if filter.ProductID != "" && key.productID != filter.ProductID {
			continue
		}
		if filter.VendorID != "" && key.vendorID != filter.VendorID {
			continue
		}
		if filter.InStockOnly && !price.InStock() {
			continue
		}
		if !filter.UpdatedSince.IsZero() && price.LastUpdated.Before(filter.UpdatedSince) {
			continue
		}
		if filter.CategoryID != "" {
			product := s.products[key.productID]
			if product.CategoryID == nil || *product.CategoryID != filter.CategoryID {
				continue
			}
		}
		result = append(result, price)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Price.Equal(result[j].Price) {
			return result[i].Price.LessThan(result[j].Price)
		}
		return result[i].VendorID < result[j].VendorID
	})
	return result, nil
}

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// AppendHistory records a superseded price.
func (h *historyStore) AppendHistory(_ context.Context, entry *domain.PriceHistory) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[entry.ProductID]; !ok {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, entry.ProductID)
	}
	s.history = append(s.history, *entry)
	return nil
}

// ListHistory returns entries matching the filter, newest first.
func (h *historyStore) ListHistory(_ context.Context, filter driven.HistoryFilter) ([]domain.PriceHistory, error) {
	s := h.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PriceHistory
	for _, entry := range s.history {
		if filter.ProductID != "" && entry.ProductID != filter.ProductID {
			continue
		}
		if filter.VendorID != "" && entry.VendorID != filter.VendorID {
			continue
		}
		if !filter.Since.IsZero() && entry.RecordedAt.Before(filter.Since) {
			continue
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})
	return result, nil
}

// PruneHistory deletes entries recorded before the cutoff.
func (h *historyStore) PruneHistory(_ context.Context, before time.Time) (int, error) {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.history[:0]
	for _, entry := range s.history {
		if !entry.RecordedAt.Before(before) {
			kept = append(kept, entry)
		}
	}
	removed := len(s.history) - len(kept)
	s.history = kept
	return removed, nil
}
