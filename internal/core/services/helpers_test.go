package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func moneyPtr(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

func observation(name, price string) domain.Observation {
	return domain.Observation{RawName: name, Price: money(price)}
}

// newSeededStore returns a memory store with the default categories.
func newSeededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, SeedCategories(context.Background(), store.CatalogStore()))
	return store
}

// testSettings are pipeline settings with fast retries.
func testSettings() domain.PipelineSettings {
	s := domain.DefaultPipelineSettings()
	s.MaxRetries = 1
	s.RetryBaseDelay = time.Millisecond
	return s
}

// recordingMetrics implements driven.MetricsRecorder for testing.
type recordingMetrics struct {
	mu       sync.Mutex
	runs     map[domain.RunStatus]int
	applied  map[domain.UpdateOutcome]int
	matches  map[domain.MatchOutcome]int
	failures map[string]int
	retries  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		runs:     map[domain.RunStatus]int{},
		applied:  map[domain.UpdateOutcome]int{},
		matches:  map[domain.MatchOutcome]int{},
		failures: map[string]int{},
		retries:  map[string]int{},
	}
}

func (m *recordingMetrics) RunFinished(_ string, status domain.RunStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
}

func (m *recordingMetrics) ObservationApplied(_ string, outcome domain.UpdateOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[outcome]++
}

func (m *recordingMetrics) MatchResolved(outcome domain.MatchOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[outcome]++
}

func (m *recordingMetrics) QueryFailed(vendorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[vendorID]++
}

func (m *recordingMetrics) RetryAttempted(vendorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries[vendorID]++
}

// recordingPublisher implements driven.PriceEventPublisher for testing.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PriceChangeEvent
	err    error
}

func (p *recordingPublisher) PublishPriceChange(_ context.Context, event domain.PriceChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var (
	_ driven.MetricsRecorder      = (*recordingMetrics)(nil)
	_ driven.PriceEventPublisher = (*recordingPublisher)(nil)
)
