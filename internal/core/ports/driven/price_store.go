package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// PriceFilter narrows a price listing. Zero fields do not filter.
type PriceFilter struct {
	ProductID    string
	VendorID     string
	CategoryID   string
	InStockOnly  bool
	UpdatedSince time.Time
}

// PriceStore persists the current price of each product at each vendor.
type PriceStore interface {
	// GetPrice retrieves the price for a (product, vendor) pair.
	// Returns domain.ErrNotFound if no price exists.
	GetPrice(ctx context.Context, productID, vendorID string) (*domain.Price, error)

	// SavePrice creates or replaces the price for its (product, vendor) pair.
	SavePrice(ctx context.Context, price *domain.Price) error

	// ReplacePrice saves price and, when archived is non-nil, appends it to
	// history in the same write. Either both are stored or neither is.
	ReplacePrice(ctx context.Context, price *domain.Price, archived *domain.PriceHistory) error

	// ListPrices returns prices matching the filter ordered by price ascending.
	ListPrices(ctx context.Context, filter PriceFilter) ([]domain.Price, error)
}

// HistoryFilter narrows a history listing. Zero fields do not filter.
type HistoryFilter struct {
	ProductID string
	VendorID  string
	Since     time.Time
}

// HistoryStore persists archived prices.
// History rows are immutable; pruning is the only deletion path.
type HistoryStore interface {
	// AppendHistory records a superseded price.
	AppendHistory(ctx context.Context, entry *domain.PriceHistory) error

	// ListHistory returns entries matching the filter, newest first.
	ListHistory(ctx context.Context, filter HistoryFilter) ([]domain.PriceHistory, error)

	// PruneHistory deletes entries recorded before the cutoff and
	// returns how many were removed.
	PruneHistory(ctx context.Context, before time.Time) (int, error)
}
