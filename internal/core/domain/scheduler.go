package domain

import "time"

// Built-in background tasks.
const (
	TaskIDPriceCollection = "price-collection"
	TaskIDHistoryPrune    = "history-prune"
)

// taskNames are the display names of the built-in tasks.
var taskNames = map[string]string{
	TaskIDPriceCollection: "Price Collection",
	TaskIDHistoryPrune:    "History Prune",
}

// TaskName returns the display name of a built-in task, or the ID itself.
func TaskName(taskID string) string {
	if name, ok := taskNames[taskID]; ok {
		return name
	}
	return taskID
}

// ScheduledTask is the persisted state of a recurring pipeline task.
// NextRun is zero until the task has been scheduled.
type ScheduledTask struct {
	ID          string
	Name        string
	Interval    time.Duration
	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	LastError   string
	Enabled     bool
}

// Due reports whether an enabled task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Finish records result on the task and schedules the next run one
// interval after the result ended.
func (t *ScheduledTask) Finish(result *TaskResult) {
	t.LastRun = result.StartedAt
	t.NextRun = result.EndedAt.Add(t.Interval)
	if result.Success {
		t.LastError = ""
		t.LastSuccess = result.EndedAt
		return
	}
	t.LastError = result.Error
}

// TaskResult is one execution of a scheduled task.
//
// For collection, ItemsProcessed counts products scraped across vendors
// and the run fields link back to the ScraperRuns it produced. For
// history pruning, ItemsProcessed is the number of archived prices removed.
type TaskResult struct {
	TaskID         string
	StartedAt      time.Time
	EndedAt        time.Time
	Success        bool
	Error          string
	ItemsProcessed int

	ErrorsCount    int
	RunIDs         []string
	FailedVendors  []string
	SkippedVendors []string
}

// RecordCollection copies the outcome of a collection pass.
// A pass with failed vendors still succeeds; the failures are listed.
func (r *TaskResult) RecordCollection(summary *RunSummary) {
	if summary == nil {
		return
	}
	r.ItemsProcessed = summary.TotalProducts
	r.ErrorsCount = summary.TotalErrors
	r.FailedVendors = append([]string(nil), summary.FailedVendors...)
	r.SkippedVendors = append([]string(nil), summary.SkippedVendors...)
	r.RunIDs = make([]string, 0, len(summary.Runs))
	for _, run := range summary.Runs {
		r.RunIDs = append(r.RunIDs, run.ID)
	}
}

// Fail marks the result failed with err.
func (r *TaskResult) Fail(err error) {
	r.Success = false
	r.Error = err.Error()
}

// Duration is how long the execution took.
func (r *TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig switches the scheduler and its tasks on and off.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for taskID, or a zero (disabled)
// TaskConfig when the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig collects every six hours and prunes history daily.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDPriceCollection: {Enabled: true, Interval: 6 * time.Hour},
			TaskIDHistoryPrune:    {Enabled: true, Interval: 24 * time.Hour},
		},
	}
}
