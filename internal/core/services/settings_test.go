package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// mockConfigStore implements driven.ConfigStore for testing.
type mockConfigStore struct {
	data    map[string]any
	saveErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) GetTables(key string) []map[string]any {
	t, _ := m.data[key].([]map[string]any)
	return t
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return m.saveErr }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "/tmp/config.toml" }

func newTestSettingsService(store *mockConfigStore, env map[string]string) *SettingsService {
	svc := NewSettingsService(store)
	svc.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return svc
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := newTestSettingsService(newMockConfigStore(), nil)

	cfg, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "0.01", cfg.Pipeline.MaterialityThreshold.String())
	assert.Equal(t, 90, cfg.Pipeline.HistoryRetentionDays)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, domain.DefaultQueries(), cfg.Pipeline.Queries)
	assert.Equal(t, domain.StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL)
	assert.Len(t, cfg.Vendors, 4)
	assert.Equal(t, 6*time.Hour, cfg.Scheduler.GetTaskConfig(domain.TaskIDPriceCollection).Interval)
}

func TestSettingsService_Get_FromStore(t *testing.T) {
	store := newMockConfigStore()
	store.data[keySimilarityThreshold] = int64(90)
	store.data[keyMaterialityThreshold] = "0.50"
	store.data[keyRetentionDays] = int64(30)
	store.data[keyMaxRetries] = int64(0)
	store.data[keyRetryBaseDelay] = "250ms"
	store.data[keyDefaultCategory] = "Audio"
	store.data[keyQueries] = []string{"iPad Pro"}
	store.data[keySchedulerEnabled] = false
	store.data[keyCollectionInterval] = "2h"
	store.data[keyPruneInterval] = int64(3600)
	store.data[keyRedisAddr] = "localhost:6379"
	store.data[keyKafkaBrokers] = []string{"localhost:9092"}
	store.data[keyMetricsAddr] = ":9090"
	svc := newTestSettingsService(store, nil)

	cfg, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "0.5", cfg.Pipeline.MaterialityThreshold.String())
	assert.Equal(t, 30, cfg.Pipeline.HistoryRetentionDays)
	assert.Equal(t, 0, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "Audio", cfg.Pipeline.DefaultCategory)
	assert.Equal(t, []string{"iPad Pro"}, cfg.Pipeline.Queries)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Scheduler.GetTaskConfig(domain.TaskIDPriceCollection).Interval)
	assert.Equal(t, time.Hour, cfg.Scheduler.GetTaskConfig(domain.TaskIDHistoryPrune).Interval)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestSettingsService_Get_Vendors(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyVendors] = []map[string]any{
		{
			"id":                 "acme",
			"display_name":       "Acme",
			"kind":               "httpfeed",
			"endpoint":           "https://feed.acme.test/search?q={query}",
			"rate_limit_seconds": 1.5,
			"max_retries":        int64(2),
			"timeout":            "5s",
		},
		{"id": "local", "active": false, "fixture_dir": "/srv/fixtures"},
	}
	svc := newTestSettingsService(store, nil)

	cfg, err := svc.Get()

	require.NoError(t, err)
	require.Len(t, cfg.Vendors, 2)

	acme := cfg.Vendors[0]
	assert.Equal(t, domain.VendorKindHTTPFeed, acme.Kind)
	assert.Equal(t, 1500*time.Millisecond, acme.RateLimit())
	assert.Equal(t, 2, acme.MaxRetries)
	assert.Equal(t, 5*time.Second, acme.Timeout)
	assert.True(t, acme.Active)

	local := cfg.Vendors[1]
	assert.Equal(t, domain.VendorKindFixture, local.Kind)
	assert.Equal(t, "/srv/fixtures", local.FixtureDir)
	assert.False(t, local.Active)

	assert.Len(t, cfg.ActiveVendors(), 1)
}

func TestSettingsService_Get_VendorWithoutID(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyVendors] = []map[string]any{{"kind": "fixture"}}
	svc := newTestSettingsService(store, nil)

	_, err := svc.Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_EnvOverrides(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyRedisAddr] = "file:6379"
	env := map[string]string{
		EnvStorageDriver:       "postgres",
		EnvDatabaseURL:         "postgres://localhost/pricepilot",
		EnvRedisAddr:           "env:6379",
		EnvKafkaBrokers:        "a:9092, b:9092",
		EnvQueries:             "MacBook Pro,AirPods Pro",
		EnvSimilarityThreshold: "85.5",
		EnvFixtureDir:          "/data/fixtures",
	}
	svc := newTestSettingsService(store, env)

	cfg, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/pricepilot", cfg.Storage.DSN)
	assert.Equal(t, "env:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"MacBook Pro", "AirPods Pro"}, cfg.Pipeline.Queries)
	assert.Equal(t, 85.5, cfg.Pipeline.SimilarityThreshold)
	for _, v := range cfg.Vendors {
		assert.Equal(t, "/data/fixtures", v.FixtureDir)
	}
}

func TestSettingsService_Get_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad duration", keyRetryBaseDelay, "soon"},
		{"bad decimal", keyMaterialityThreshold, "cheap"},
		{"threshold out of range", keySimilarityThreshold, 150.0},
		{"unknown driver", keyStorageDriver, "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockConfigStore()
			store.data[tt.key] = tt.val
			svc := newTestSettingsService(store, nil)

			_, err := svc.Get()

			assert.Error(t, err)
		})
	}
}

func TestSettingsService_Get_PostgresWithoutDSN(t *testing.T) {
	store := newMockConfigStore()
	store.data[keyStorageDriver] = domain.StorageDriverPostgres
	svc := newTestSettingsService(store, nil)

	_, err := svc.Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetQueries(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)

	require.NoError(t, svc.SetQueries([]string{" iPad Pro ", "", "JBL Charge 5"}))

	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"iPad Pro", "JBL Charge 5"}, cfg.Pipeline.Queries)
}

func TestSettingsService_SetQueries_Empty(t *testing.T) {
	svc := newTestSettingsService(newMockConfigStore(), nil)

	err := svc.SetQueries([]string{" ", ""})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetSimilarityThreshold(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)

	require.NoError(t, svc.SetSimilarityThreshold(72.5))
	assert.ErrorIs(t, svc.SetSimilarityThreshold(-1), domain.ErrInvalidInput)

	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 72.5, cfg.Pipeline.SimilarityThreshold)
}

func TestSettingsService_SetSimilarityThreshold_SaveError(t *testing.T) {
	store := newMockConfigStore()
	store.saveErr = errors.New("disk full")
	svc := newTestSettingsService(store, nil)

	err := svc.SetSimilarityThreshold(50)

	assert.ErrorContains(t, err, "disk full")
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/.pricepilot", expandHome("~/.pricepilot"))
	assert.Equal(t, "/home/tester", expandHome("~"))
	assert.Equal(t, "/var/lib/x", expandHome("/var/lib/x"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
