package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/vendors/feed"
)

// Ensure Source implements the interface.
var _ driven.VendorSource = (*Source)(nil)

// Source reads listings for one vendor from a fixture directory.
type Source struct {
	vendorID string
	dir      string
	closed   atomic.Bool
}

// New creates a source from vendor configuration.
func New(cfg domain.VendorConfig) (*Source, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: vendor id is required", domain.ErrInvalidInput)
	}
	if cfg.FixtureDir == "" {
		return nil, fmt.Errorf("%w: vendor %s has no fixture directory", domain.ErrInvalidInput, cfg.ID)
	}
	return &Source{vendorID: cfg.ID, dir: cfg.FixtureDir}, nil
}

// VendorID returns the configured vendor ID.
func (s *Source) VendorID() string {
	return s.vendorID
}

// Search reads the fixture file for a query.
func (s *Source) Search(ctx context.Context, query string) ([]domain.Observation, error) {
	if s.closed.Load() {
		return nil, domain.ErrSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(query)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Observation{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVendorUnavailable, s.vendorID, err)
	}
	defer f.Close()

	observations, err := feed.Decode(s.vendorID, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", domain.ErrVendorRejected, s.vendorID, path, err)
	}
	return observations, nil
}

// Path returns the fixture file for a query.
func (s *Source) Path(query string) string {
	return filepath.Join(s.dir, s.vendorID, Slug(query)+".json")
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}

// Slug converts a query to a file name.
func Slug(query string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
