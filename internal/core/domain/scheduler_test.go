package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.TaskConfigs, 2)

	collectCfg := config.TaskConfigs[TaskIDPriceCollection]
	assert.True(t, collectCfg.Enabled)
	assert.Equal(t, 6*time.Hour, collectCfg.Interval)

	pruneCfg := config.TaskConfigs[TaskIDHistoryPrune]
	assert.True(t, pruneCfg.Enabled)
	assert.Equal(t, 24*time.Hour, pruneCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	collectCfg := config.GetTaskConfig(TaskIDPriceCollection)
	assert.True(t, collectCfg.Enabled)
	assert.Equal(t, 6*time.Hour, collectCfg.Interval)

	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: nil,
	}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "price-collection", TaskIDPriceCollection)
	assert.Equal(t, "history-prune", TaskIDHistoryPrune)
}

func TestTaskName(t *testing.T) {
	assert.Equal(t, "Price Collection", TaskName(TaskIDPriceCollection))
	assert.Equal(t, "History Prune", TaskName(TaskIDHistoryPrune))
	assert.Equal(t, "custom", TaskName("custom"))
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{"never scheduled", ScheduledTask{Enabled: true}, true},
		{"past due", ScheduledTask{Enabled: true, NextRun: now.Add(-time.Minute)}, true},
		{"exactly now", ScheduledTask{Enabled: true, NextRun: now}, true},
		{"in future", ScheduledTask{Enabled: true, NextRun: now.Add(time.Minute)}, false},
		{"disabled", ScheduledTask{NextRun: now.Add(-time.Minute)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Finish(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	task := ScheduledTask{Interval: time.Hour, LastError: "old failure", Enabled: true}

	task.Finish(&TaskResult{StartedAt: start, EndedAt: end, Success: true})
	assert.Equal(t, start, task.LastRun)
	assert.Equal(t, end.Add(time.Hour), task.NextRun)
	assert.Equal(t, end, task.LastSuccess)
	assert.Empty(t, task.LastError)

	failed := &TaskResult{StartedAt: end, EndedAt: end.Add(time.Minute), Success: true}
	failed.Fail(ErrInvalidInput)
	task.Finish(failed)
	assert.False(t, failed.Success)
	assert.Equal(t, ErrInvalidInput.Error(), task.LastError)
	assert.Equal(t, end, task.LastSuccess)
	assert.Equal(t, time.Minute, failed.Duration())
}

func TestTaskResult_RecordCollection(t *testing.T) {
	summary := &RunSummary{}
	summary.Add(ScraperRun{ID: "r1", VendorID: "bestbuy", ProductsScraped: 4, ErrorsCount: 1})
	summary.Add(ScraperRun{ID: "r2", VendorID: "walmart", Status: RunStatusFailed, ErrorsCount: 2})
	summary.SkippedVendors = []string{"amazon"}

	var result TaskResult
	result.RecordCollection(summary)

	assert.Equal(t, 4, result.ItemsProcessed)
	assert.Equal(t, 3, result.ErrorsCount)
	assert.Equal(t, []string{"r1", "r2"}, result.RunIDs)
	assert.Equal(t, []string{"walmart"}, result.FailedVendors)
	assert.Equal(t, []string{"amazon"}, result.SkippedVendors)

	result.RecordCollection(nil)
	assert.Equal(t, 4, result.ItemsProcessed)
}
