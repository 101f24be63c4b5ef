package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown vendor source kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrMalformedObservation indicates an observation failed validation.
	// The observation is skipped and counted; it never fails the run.
	ErrMalformedObservation = errors.New("malformed observation")

	// ErrRunInProgress indicates a collection run is already active for a vendor.
	ErrRunInProgress = errors.New("run in progress")

	// ErrCatalogUnavailable indicates the catalog could not be read.
	// This is a run-level failure.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrRunCancelled indicates a run stopped before all queries completed.
	ErrRunCancelled = errors.New("cancelled")

	// Vendor Errors.

	// ErrVendorUnavailable indicates a transient vendor I/O failure.
	ErrVendorUnavailable = errors.New("vendor unavailable")

	// ErrVendorRejected indicates the vendor refused the request permanently.
	// Retrying will not help.
	ErrVendorRejected = errors.New("vendor rejected request")

	// ErrRateLimited indicates the vendor rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrSourceClosed indicates the vendor source has been closed.
	ErrSourceClosed = errors.New("source closed")
)

// RateLimitError reports a vendor throttling response.
// RetryAfter is zero when the vendor gave no hint.
type RateLimitError struct {
	VendorID   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("vendor %s rate limited, retry after %s", e.VendorID, e.RetryAfter)
	}
	return fmt.Sprintf("vendor %s rate limited", e.VendorID)
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
