package driven

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// PriceEventPublisher announces material price changes to other systems.
type PriceEventPublisher interface {
	// PublishPriceChange sends one event. Delivery is best effort.
	PublishPriceChange(ctx context.Context, event domain.PriceChangeEvent) error

	// Close flushes and releases resources.
	Close() error
}
