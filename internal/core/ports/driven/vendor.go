package driven

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// VendorSource returns normalised observations from one vendor.
// Each vendor kind (httpfeed, fixture) implements this interface.
type VendorSource interface {
	// VendorID returns the configured vendor ID.
	VendorID() string

	// Search returns the observations for a query.
	// An empty slice means the query yielded nothing; it is not an error.
	// Transient failures should wrap domain.ErrVendorUnavailable or
	// domain.ErrRateLimited so the caller can retry them.
	Search(ctx context.Context, query string) ([]domain.Observation, error)

	// Close releases resources.
	Close() error
}

// VendorBuilder creates a VendorSource from vendor configuration.
type VendorBuilder func(cfg domain.VendorConfig) (VendorSource, error)

// VendorFactory creates vendor sources from configuration.
// It maintains a registry of source kinds and their builders.
type VendorFactory interface {
	// Create returns a VendorSource for the given vendor.
	// Returns ErrUnsupportedType if the kind is unknown.
	Create(cfg domain.VendorConfig) (VendorSource, error)

	// Register adds a builder for the given kind.
	Register(kind string, builder VendorBuilder)

	// SupportedKinds returns all registered kinds.
	SupportedKinds() []string
}
