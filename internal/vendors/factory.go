package vendors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/vendors/fixture"
	"github.com/custodia-labs/pricepilot/internal/vendors/httpfeed"
)

// Ensure Factory implements the interface.
var _ driven.VendorFactory = (*Factory)(nil)

// Factory creates vendor sources by kind.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]driven.VendorBuilder
}

// NewFactory creates a factory with the built-in httpfeed and fixture kinds.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]driven.VendorBuilder)}
	f.Register(domain.VendorKindHTTPFeed, func(cfg domain.VendorConfig) (driven.VendorSource, error) {
		return httpfeed.New(cfg)
	})
	f.Register(domain.VendorKindFixture, func(cfg domain.VendorConfig) (driven.VendorSource, error) {
		return fixture.New(cfg)
	})
	return f
}

// Create returns a VendorSource for the given vendor.
func (f *Factory) Create(cfg domain.VendorConfig) (driven.VendorSource, error) {
	f.mu.RLock()
	builder, ok := f.builders[cfg.Kind]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: vendor kind %q", domain.ErrUnsupportedType, cfg.Kind)
	}
	return builder(cfg)
}

// Register adds a builder for the given kind, replacing any existing one.
func (f *Factory) Register(kind string, builder driven.VendorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = builder
}

// SupportedKinds returns all registered kinds in sorted order.
func (f *Factory) SupportedKinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.builders))
	for kind := range f.builders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
