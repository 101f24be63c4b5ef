package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config    domain.SchedulerConfig
	store     driven.SchedulerStore
	runs      driven.RunStore
	collector driving.Collector
	ledger    driving.LedgerService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	busy    map[string]bool

	// tick is how often due tasks are checked.
	tick time.Duration
}

// NewScheduler creates a scheduler with configuration.
// runs is used to catch up on a collection that is overdue at startup
// and may be nil.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	runs driven.RunStore,
	collector driving.Collector,
	ledger driving.LedgerService,
) *Scheduler {
	return &Scheduler{
		config:    config,
		store:     store,
		runs:      runs,
		collector: collector,
		ledger:    ledger,
		busy:      make(map[string]bool),
		tick:      time.Minute,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	// Run the main scheduler loop
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	for _, id := range []string{domain.TaskIDPriceCollection, domain.TaskIDHistoryPrune} {
		taskCfg := s.config.GetTaskConfig(id)
		if !taskCfg.Enabled {
			continue
		}
		if err := s.ensureTask(ctx, id, domain.TaskName(id), taskCfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// Create new task
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.firstRun(ctx, id, cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// firstRun schedules a new task. Collection is due immediately when the
// last completed run is older than the interval or there is none.
func (s *Scheduler) firstRun(ctx context.Context, id string, interval time.Duration) time.Time {
	now := time.Now()
	if id != domain.TaskIDPriceCollection || s.runs == nil {
		return now.Add(interval)
	}
	runs, err := s.runs.ListRuns(ctx, driven.RunFilter{Status: domain.RunStatusCompleted, Limit: 1})
	if err != nil || len(runs) == 0 || runs[0].CompletedAt == nil {
		return now
	}
	next := runs[0].CompletedAt.Add(interval)
	if next.Before(now) {
		return now
	}
	return next
}

// runTask executes a single task. A task still running from an earlier
// tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.busy[task.ID] {
		s.mu.Unlock()
		return
	}
	s.busy[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.busy, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
			Success:   true,
		}

		var err error
		switch task.ID {
		case domain.TaskIDPriceCollection:
			var summary *domain.RunSummary
			if summary, err = s.runCollection(ctx); err == nil {
				result.RecordCollection(summary)
			}
		case domain.TaskIDHistoryPrune:
			result.ItemsProcessed, err = s.runPrune(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Fail(err)
		}
		if len(result.FailedVendors) > 0 {
			logger.Warn("scheduler: %s finished with failed vendors: %v", task.ID, result.FailedVendors)
		}
		task.Finish(result)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		// Record result for history
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		// Prune old history (keep last 100 results per task)
		if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
			logger.Error("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runCollection runs one pass with the configured queries.
func (s *Scheduler) runCollection(ctx context.Context) (*domain.RunSummary, error) {
	if s.collector == nil {
		return &domain.RunSummary{}, nil
	}
	return s.collector.Run(ctx, nil)
}

// runPrune applies the history retention policy.
func (s *Scheduler) runPrune(ctx context.Context) (int, error) {
	if s.ledger == nil {
		return 0, nil
	}
	return s.ledger.PruneHistory(ctx)
}
