package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Vendor source kinds.
const (
	// VendorKindHTTPFeed reads normalised JSON observations over HTTP.
	VendorKindHTTPFeed = "httpfeed"

	// VendorKindFixture reads normalised JSON observations from local files.
	VendorKindFixture = "fixture"
)

// Storage drivers.
const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// PipelineSettings holds the tunables of the ingestion pipeline.
type PipelineSettings struct {
	// SimilarityThreshold is the minimum composite score (0..100) for a match.
	SimilarityThreshold float64

	// MaterialityThreshold is the price delta above which history is archived.
	MaterialityThreshold decimal.Decimal

	// HistoryRetentionDays is how long archived prices are kept.
	HistoryRetentionDays int

	// HistoryWindowDays is the default window for ledger history queries.
	HistoryWindowDays int

	// MaxRetries is the default retry count for vendors that do not set one.
	MaxRetries int

	// RetryBaseDelay is the backoff base; attempt n waits base * 2^n.
	RetryBaseDelay time.Duration

	// DefaultCategory is used when no category keyword matches a new product.
	DefaultCategory string

	// Queries is the fixed query list for each orchestration pass.
	Queries []string
}

// DefaultQueries is the query list used when none is configured.
func DefaultQueries() []string {
	return []string{
		"MacBook Pro",
		"Dell XPS 13",
		"Sony WH-1000XM4",
		"Bose QuietComfort",
		"JBL Charge 5",
		"iPad Pro",
		"Surface Laptop",
		"AirPods Pro",
		"Samsung Galaxy Buds",
	}
}

// DefaultPipelineSettings returns sensible defaults for the pipeline.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		SimilarityThreshold:  80,
		MaterialityThreshold: decimal.NewFromFloat(0.01),
		HistoryRetentionDays: 90,
		HistoryWindowDays:    30,
		MaxRetries:           3,
		RetryBaseDelay:       time.Second,
		DefaultCategory:      CategoryLaptops,
		Queries:              DefaultQueries(),
	}
}

// Validate checks the settings are usable.
func (p PipelineSettings) Validate() error {
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 100 {
		return fmt.Errorf("%w: similarity threshold must be within 0..100", ErrInvalidInput)
	}
	if p.MaterialityThreshold.IsNegative() {
		return fmt.Errorf("%w: materiality threshold must not be negative", ErrInvalidInput)
	}
	if p.HistoryRetentionDays < 1 {
		return fmt.Errorf("%w: history retention must be at least one day", ErrInvalidInput)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidInput)
	}
	return nil
}

// VendorConfig configures one vendor source.
type VendorConfig struct {
	// ID is the vendor slug.
	ID string

	// DisplayName is shown to users.
	DisplayName string

	// Kind selects the source implementation (httpfeed, fixture).
	Kind string

	// BaseURL is the retailer's home page.
	BaseURL string

	// Endpoint is the feed URL template for httpfeed sources.
	// "{query}" is replaced by the escaped search query.
	Endpoint string

	// FixtureDir is the directory read by fixture sources.
	FixtureDir string

	// RateLimitSeconds is the minimum delay between calls to this vendor.
	RateLimitSeconds float64

	// MaxRetries overrides the pipeline default when positive.
	MaxRetries int

	// Timeout bounds a single request.
	Timeout time.Duration

	// Active vendors take part in collection runs.
	Active bool
}

// RateLimit returns the minimum delay between calls.
func (v VendorConfig) RateLimit() time.Duration {
	return time.Duration(v.RateLimitSeconds * float64(time.Second))
}

// Vendor returns the catalog record for this vendor.
func (v VendorConfig) Vendor() Vendor {
	name := v.DisplayName
	if name == "" {
		name = v.ID
	}
	return Vendor{ID: v.ID, DisplayName: name, BaseURL: v.BaseURL, Active: v.Active}
}

// DefaultVendors returns the stock vendor set, reading local fixtures.
func DefaultVendors(fixtureDir string) []VendorConfig {
	return []VendorConfig{
		{ID: "amazon", DisplayName: "Amazon", Kind: VendorKindFixture, BaseURL: "https://www.amazon.com",
			FixtureDir: fixtureDir, RateLimitSeconds: 1.0, MaxRetries: 3, Active: true},
		{ID: "bestbuy", DisplayName: "Best Buy", Kind: VendorKindFixture, BaseURL: "https://www.bestbuy.com",
			FixtureDir: fixtureDir, RateLimitSeconds: 0.5, MaxRetries: 3, Active: true},
		{ID: "walmart", DisplayName: "Walmart", Kind: VendorKindFixture, BaseURL: "https://www.walmart.com",
			FixtureDir: fixtureDir, RateLimitSeconds: 0.5, MaxRetries: 3, Active: true},
		{ID: "brand", DisplayName: "Brand Store", Kind: VendorKindFixture,
			FixtureDir: fixtureDir, RateLimitSeconds: 2.0, MaxRetries: 3, Active: true},
	}
}

// StorageSettings selects and configures the persistence backend.
type StorageSettings struct {
	// Driver is sqlite, postgres, or memory.
	Driver string

	// Path is the sqlite data directory.
	Path string

	// DSN is the postgres connection string.
	DSN string
}

// RedisSettings configures the distributed run lock. Empty Addr disables it.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// KafkaSettings configures price-change events. No brokers disables them.
type KafkaSettings struct {
	Brokers []string
	Topic   string
}

// MetricsSettings configures the prometheus endpoint. Empty Addr disables it.
type MetricsSettings struct {
	Addr string
}

// Config is the complete application configuration.
type Config struct {
	Pipeline  PipelineSettings
	Storage   StorageSettings
	Scheduler SchedulerConfig
	Vendors   []VendorConfig
	Redis     RedisSettings
	Kafka     KafkaSettings
	Metrics   MetricsSettings
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Vendors))
	for _, v := range c.Vendors {
		if v.ID == "" {
			return fmt.Errorf("%w: vendor id is required", ErrInvalidInput)
		}
		if seen[v.ID] {
			return fmt.Errorf("%w: duplicate vendor %q", ErrInvalidInput, v.ID)
		}
		seen[v.ID] = true
		if v.RateLimitSeconds < 0 {
			return fmt.Errorf("%w: vendor %q rate limit must not be negative", ErrInvalidInput, v.ID)
		}
	}
	switch c.Storage.Driver {
	case StorageDriverSQLite, StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: postgres storage needs a dsn", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: storage driver %q", ErrUnsupportedType, c.Storage.Driver)
	}
	return nil
}

// ActiveVendors returns the vendors that take part in runs.
func (c *Config) ActiveVendors() []VendorConfig {
	active := make([]VendorConfig, 0, len(c.Vendors))
	for _, v := range c.Vendors {
		if v.Active {
			active = append(active, v)
		}
	}
	return active
}
