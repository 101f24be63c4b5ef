package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keySimilarityThreshold  = "pipeline.similarity_threshold"
	keyMaterialityThreshold = "pipeline.materiality_threshold"
	keyRetentionDays        = "pipeline.history_retention_days"
	keyWindowDays           = "pipeline.history_window_days"
	keyMaxRetries           = "pipeline.max_retries"
	keyRetryBaseDelay       = "pipeline.retry_base_delay"
	keyDefaultCategory      = "pipeline.default_category"
	keyQueries              = "pipeline.queries"
	keyFixtureDir           = "pipeline.fixture_dir"
	keyStorageDriver        = "storage.driver"
	keyStoragePath          = "storage.path"
	keyStorageDSN           = "storage.dsn"
	keySchedulerEnabled     = "scheduler.enabled"
	keyCollectionInterval   = "scheduler.collection_interval"
	keyPruneInterval        = "scheduler.prune_interval"
	keyRedisAddr            = "redis.addr"
	keyRedisPassword        = "redis.password"
	keyRedisDB              = "redis.db"
	keyRedisLockTTL         = "redis.lock_ttl"
	keyKafkaBrokers         = "kafka.brokers"
	keyKafkaTopic           = "kafka.topic"
	keyMetricsAddr          = "metrics.addr"
	keyVendors              = "vendors"
)

// Environment variables that override the config file.
const (
	EnvStorageDriver       = "PRICEPILOT_STORAGE_DRIVER"
	EnvStoragePath         = "PRICEPILOT_STORAGE_PATH"
	EnvDatabaseURL         = "PRICEPILOT_DATABASE_URL"
	EnvRedisAddr           = "PRICEPILOT_REDIS_ADDR"
	EnvRedisPassword       = "PRICEPILOT_REDIS_PASSWORD"
	EnvKafkaBrokers        = "PRICEPILOT_KAFKA_BROKERS"
	EnvMetricsAddr         = "PRICEPILOT_METRICS_ADDR"
	EnvSimilarityThreshold = "PRICEPILOT_SIMILARITY_THRESHOLD"
	EnvQueries             = "PRICEPILOT_QUERIES"
	EnvFixtureDir          = "PRICEPILOT_FIXTURE_DIR"
)

// DefaultKafkaTopic receives price-change events.
const DefaultKafkaTopic = "pricepilot.price-changes"

// SettingsService builds the application configuration from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// Environment overrides are read with os.LookupEnv.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// GetDefaults returns the built-in configuration.
func (s *SettingsService) GetDefaults() domain.Config {
	return domain.Config{
		Pipeline:  domain.DefaultPipelineSettings(),
		Storage:   domain.StorageSettings{Driver: domain.StorageDriverSQLite},
		Scheduler: domain.DefaultSchedulerConfig(),
		Vendors:   domain.DefaultVendors(defaultFixtureDir()),
		Redis:     domain.RedisSettings{LockTTL: 30 * time.Minute},
		Kafka:     domain.KafkaSettings{Topic: DefaultKafkaTopic},
	}
}

// Get returns the effective configuration.
func (s *SettingsService) Get() (*domain.Config, error) {
	cfg := s.GetDefaults()

	pipeline := &cfg.Pipeline
	pipeline.SimilarityThreshold = s.getFloat(keySimilarityThreshold, pipeline.SimilarityThreshold)
	materiality, err := s.getDecimal(keyMaterialityThreshold, pipeline.MaterialityThreshold)
	if err != nil {
		return nil, err
	}
	pipeline.MaterialityThreshold = materiality
	pipeline.HistoryRetentionDays = s.getInt(keyRetentionDays, pipeline.HistoryRetentionDays)
	pipeline.HistoryWindowDays = s.getInt(keyWindowDays, pipeline.HistoryWindowDays)
	if _, ok := s.configStore.Get(keyMaxRetries); ok {
		pipeline.MaxRetries = s.configStore.GetInt(keyMaxRetries)
	}
	if pipeline.RetryBaseDelay, err = s.getDuration(keyRetryBaseDelay, pipeline.RetryBaseDelay); err != nil {
		return nil, err
	}
	pipeline.DefaultCategory = s.getString(keyDefaultCategory, pipeline.DefaultCategory)
	if queries := s.configStore.GetStringSlice(keyQueries); len(queries) > 0 {
		pipeline.Queries = queries
	}

	cfg.Storage.Driver = s.getString(keyStorageDriver, cfg.Storage.Driver)
	cfg.Storage.Path = expandHome(s.configStore.GetString(keyStoragePath))
	cfg.Storage.DSN = s.configStore.GetString(keyStorageDSN)

	cfg.Scheduler.Enabled = s.getBool(keySchedulerEnabled, cfg.Scheduler.Enabled)
	if err := s.setInterval(&cfg.Scheduler, domain.TaskIDPriceCollection, keyCollectionInterval); err != nil {
		return nil, err
	}
	if err := s.setInterval(&cfg.Scheduler, domain.TaskIDHistoryPrune, keyPruneInterval); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = s.configStore.GetString(keyRedisAddr)
	cfg.Redis.Password = s.configStore.GetString(keyRedisPassword)
	cfg.Redis.DB = s.configStore.GetInt(keyRedisDB)
	if cfg.Redis.LockTTL, err = s.getDuration(keyRedisLockTTL, cfg.Redis.LockTTL); err != nil {
		return nil, err
	}
	cfg.Kafka.Brokers = s.configStore.GetStringSlice(keyKafkaBrokers)
	cfg.Kafka.Topic = s.getString(keyKafkaTopic, cfg.Kafka.Topic)
	cfg.Metrics.Addr = s.configStore.GetString(keyMetricsAddr)

	fixtureDir := expandHome(s.getString(keyFixtureDir, defaultFixtureDir()))
	if env, ok := s.env(EnvFixtureDir); ok {
		fixtureDir = expandHome(env)
	}
	if tables := s.configStore.GetTables(keyVendors); len(tables) > 0 {
		vendors, err := parseVendors(tables, fixtureDir)
		if err != nil {
			return nil, err
		}
		cfg.Vendors = vendors
	} else {
		cfg.Vendors = domain.DefaultVendors(fixtureDir)
	}

	if err := s.applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetQueries replaces the collection query list.
func (s *SettingsService) SetQueries(queries []string) error {
	cleaned := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("%w: at least one query is required", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyQueries, cleaned); err != nil {
		return fmt.Errorf("save queries: %w", err)
	}
	return nil
}

// SetSimilarityThreshold updates the matcher threshold.
func (s *SettingsService) SetSimilarityThreshold(threshold float64) error {
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("%w: similarity threshold must be within 0..100", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keySimilarityThreshold, threshold); err != nil {
		return fmt.Errorf("save similarity threshold: %w", err)
	}
	return nil
}

// applyEnv overlays PRICEPILOT_* variables.
func (s *SettingsService) applyEnv(cfg *domain.Config) error {
	if v, ok := s.env(EnvStorageDriver); ok {
		cfg.Storage.Driver = v
	}
	if v, ok := s.env(EnvStoragePath); ok {
		cfg.Storage.Path = expandHome(v)
	}
	if v, ok := s.env(EnvDatabaseURL); ok {
		cfg.Storage.DSN = v
	}
	if v, ok := s.env(EnvRedisAddr); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := s.env(EnvRedisPassword); ok {
		cfg.Redis.Password = v
	}
	if v, ok := s.env(EnvKafkaBrokers); ok {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v, ok := s.env(EnvMetricsAddr); ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := s.env(EnvQueries); ok {
		if queries := splitList(v); len(queries) > 0 {
			cfg.Pipeline.Queries = queries
		}
	}
	if v, ok := s.env(EnvSimilarityThreshold); ok {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, EnvSimilarityThreshold, err)
		}
		cfg.Pipeline.SimilarityThreshold = threshold
	}
	return nil
}

func (s *SettingsService) env(key string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) setInterval(cfg *domain.SchedulerConfig, taskID, key string) error {
	task := cfg.GetTaskConfig(taskID)
	interval, err := s.getDuration(key, task.Interval)
	if err != nil {
		return err
	}
	task.Interval = interval
	cfg.TaskConfigs[taskID] = task
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// getDecimal accepts a string ("0.01") or a TOML number.
func (s *SettingsService) getDecimal(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}
	if str, isString := val.(string); isString {
		d, err := decimal.NewFromString(str)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	}
	return decimal.NewFromFloat(s.configStore.GetFloat(key)), nil
}

// getDuration accepts a Go duration string ("6h") or a number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}
	if str, isString := val.(string); isString {
		d, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	}
	return time.Duration(s.configStore.GetFloat(key) * float64(time.Second)), nil
}

// parseVendors converts [[vendors]] tables into vendor configs.
func parseVendors(tables []map[string]any, fixtureDir string) ([]domain.VendorConfig, error) {
	vendors := make([]domain.VendorConfig, 0, len(tables))
	for i, t := range tables {
		v := domain.VendorConfig{
			ID:          tableString(t, "id"),
			DisplayName: tableString(t, "display_name"),
			Kind:        tableString(t, "kind"),
			BaseURL:     tableString(t, "base_url"),
			Endpoint:    tableString(t, "endpoint"),
			FixtureDir:  expandHome(tableString(t, "fixture_dir")),
			Active:      true,
		}
		if v.ID == "" {
			return nil, fmt.Errorf("%w: vendors[%d] has no id", domain.ErrInvalidInput, i)
		}
		if v.Kind == "" {
			v.Kind = domain.VendorKindFixture
		}
		if v.FixtureDir == "" {
			v.FixtureDir = fixtureDir
		}
		if active, ok := t["active"].(bool); ok {
			v.Active = active
		}
		v.RateLimitSeconds = tableFloat(t, "rate_limit_seconds")
		v.MaxRetries = int(tableFloat(t, "max_retries"))
		if timeout := tableString(t, "timeout"); timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: vendor %s timeout: %v", domain.ErrInvalidInput, v.ID, err)
			}
			v.Timeout = d
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

func tableString(t map[string]any, key string) string {
	s, _ := t[key].(string)
	return s
}

func tableFloat(t map[string]any, key string) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func defaultFixtureDir() string {
	return expandHome("~/.pricepilot/fixtures")
}
