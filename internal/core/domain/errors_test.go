package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrMalformedObservation", ErrMalformedObservation},
		{"ErrRunInProgress", ErrRunInProgress},
		{"ErrCatalogUnavailable", ErrCatalogUnavailable},
		{"ErrRunCancelled", ErrRunCancelled},
		{"ErrVendorUnavailable", ErrVendorUnavailable},
		{"ErrVendorRejected", ErrVendorRejected},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrSourceClosed", ErrSourceClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrRunCancelled_Message(t *testing.T) {
	// Recorded verbatim in ScraperRun error details.
	assert.Equal(t, "cancelled", ErrRunCancelled.Error())
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("search %q: %w", "MacBook Pro", ErrVendorUnavailable)

	assert.True(t, errors.Is(wrapped, ErrVendorUnavailable))
	assert.False(t, errors.Is(wrapped, ErrVendorRejected))
	assert.Contains(t, wrapped.Error(), "vendor unavailable")
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{VendorID: "amazon", RetryAfter: 30 * time.Second}

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, "vendor amazon rate limited, retry after 30s", err.Error())
	assert.Equal(t, "vendor walmart rate limited", (&RateLimitError{VendorID: "walmart"}).Error())

	var rle *RateLimitError
	assert.True(t, errors.As(fmt.Errorf("search: %w", err), &rle))
	assert.Equal(t, 30*time.Second, rle.RetryAfter)
}
