package memory

import (
	"sync"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// priceKey identifies the single current price of a product at a vendor.
type priceKey struct {
	productID string
	vendorID  string
}

// Store is an in-memory implementation of every persistence port.
// All stores share one lock so deletes cascade the way the SQL schemas do.
type Store struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	categories map[string]domain.Category
	vendors    map[string]domain.Vendor
	prices     map[priceKey]domain.Price
	history    []domain.PriceHistory
	runs       map[string]domain.ScraperRun
	tasks      map[string]domain.ScheduledTask
	results    map[string][]domain.TaskResult
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		vendors:    make(map[string]domain.Vendor),
		prices:     make(map[priceKey]domain.Price),
		runs:       make(map[string]domain.ScraperRun),
		tasks:      make(map[string]domain.ScheduledTask),
		results:    make(map[string][]domain.TaskResult),
	}
}

// CatalogStore returns a CatalogStore interface backed by this store.
func (s *Store) CatalogStore() driven.CatalogStore {
	return &catalogStore{store: s}
}

// PriceStore returns a PriceStore interface backed by this store.
func (s *Store) PriceStore() driven.PriceStore {
	return &priceStore{store: s}
}

// HistoryStore returns a HistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
