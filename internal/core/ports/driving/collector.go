package driving

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// Collector runs collection passes across all active vendors.
type Collector interface {
	// Run collects every query from every active vendor and returns the
	// aggregated summary. Vendor failures are reported in the summary,
	// not as an error.
	Run(ctx context.Context, queries []string) (*domain.RunSummary, error)

	// RunVendors is Run restricted to the given active vendors.
	// An empty vendorIDs list means every active vendor.
	RunVendors(ctx context.Context, queries, vendorIDs []string) (*domain.RunSummary, error)

	// Status returns live progress for a vendor.
	Status(ctx context.Context, vendorID string) (*CollectionStatus, error)
}

// CollectionStatus represents the current state of a vendor run.
type CollectionStatus struct {
	// VendorID identifies the vendor.
	VendorID string

	// Running indicates if a run is currently in progress.
	Running bool

	// RunID is the active run, if any.
	RunID string

	// QueriesDone is the number of queries finished so far.
	QueriesDone int

	// ProductsScraped is the count of observations applied so far.
	ProductsScraped int

	// ErrorCount is the number of errors encountered so far.
	ErrorCount int
}
