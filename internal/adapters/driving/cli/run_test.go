package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func sampleSummary() *domain.RunSummary {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	secs := 4
	completed := domain.ScraperRun{
		ID: "run-1", VendorID: "amazon", Status: domain.RunStatusCompleted,
		StartedAt: started, ProductsScraped: 5, ErrorsCount: 1, DurationSeconds: &secs,
	}
	failed := domain.ScraperRun{
		ID: "run-2", VendorID: "walmart", Status: domain.RunStatusFailed,
		StartedAt: started, DurationSeconds: &secs,
		ErrorDetails: map[string]any{"error": "catalog unavailable"},
	}
	summary := &domain.RunSummary{
		StartedAt:      started,
		CompletedAt:    started.Add(4 * time.Second),
		Queries:        []string{"MacBook Pro"},
		SkippedVendors: []string{"bestbuy"},
	}
	summary.Add(completed)
	summary.Add(failed)
	return summary
}

func TestRunCmd_Use(t *testing.T) {
	assert.Equal(t, "run", runCmd.Use)
	assert.Equal(t, "Collect prices from all active vendors", runCmd.Short)
}

func TestRunCmd_PrintsSummary(t *testing.T) {
	mock := &mockCollector{summary: sampleSummary()}
	cleanup := setupServices(&Services{Collector: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "run")

	require.NoError(t, err)
	assert.Contains(t, out, "Collecting prices...")
	assert.Contains(t, out, "amazon")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "catalog unavailable")
	assert.Contains(t, out, "5 products, 1 errors across 2 vendors")
	assert.Contains(t, out, "Failed vendors: walmart")
	assert.Contains(t, out, "Skipped (run in progress): bestbuy")
	assert.Nil(t, mock.gotQueries)
	assert.Nil(t, mock.gotVendors)
}

func TestRunCmd_PassesQueriesAndVendors(t *testing.T) {
	mock := &mockCollector{summary: &domain.RunSummary{}}
	cleanup := setupServices(&Services{Collector: mock})
	defer cleanup()

	_, err := executeCommand(context.Background(),
		"run", "--query", "MacBook Pro", "--query", "iPad Pro", "--vendor", "amazon,bestbuy")

	require.NoError(t, err)
	assert.Equal(t, []string{"MacBook Pro", "iPad Pro"}, mock.gotQueries)
	assert.Equal(t, []string{"amazon", "bestbuy"}, mock.gotVendors)
}

func TestRunCmd_JSON(t *testing.T) {
	mock := &mockCollector{summary: sampleSummary()}
	cleanup := setupServices(&Services{Collector: mock})
	defer cleanup()

	out, err := executeCommand(context.Background(), "run", "--json")

	require.NoError(t, err)
	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 5, summary.TotalProducts)
	assert.Equal(t, []string{"walmart"}, summary.FailedVendors)
}

func TestRunCmd_Error(t *testing.T) {
	mock := &mockCollector{err: domain.ErrInvalidInput}
	cleanup := setupServices(&Services{Collector: mock})
	defer cleanup()

	_, err := executeCommand(context.Background(), "run", "--vendor", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "collection failed")
}

func TestRunCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupServices(&Services{})
	defer cleanup()

	_, err := executeCommand(context.Background(), "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector not configured")
}

func TestRunRow(t *testing.T) {
	identity := func(s ...string) string { return s[0] }

	t.Run("running run has no duration", func(t *testing.T) {
		row := runRow(&domain.ScraperRun{VendorID: "amazon", Status: domain.RunStatusRunning}, identity)
		assert.Equal(t, []string{"amazon", "running", "0", "0", "-", "-"}, row)
	})

	t.Run("failed run shows error", func(t *testing.T) {
		secs := 12
		row := runRow(&domain.ScraperRun{
			VendorID:        "walmart",
			Status:          domain.RunStatusFailed,
			ErrorsCount:     2,
			DurationSeconds: &secs,
			ErrorDetails:    map[string]any{"error": errors.New("x").Error()},
		}, identity)
		assert.Equal(t, []string{"walmart", "failed", "0", "2", "12s", "x"}, row)
	})
}
