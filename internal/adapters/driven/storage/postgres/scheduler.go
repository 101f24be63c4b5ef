package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

type schedulerStore struct {
	pool *pgxpool.Pool
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const (
	taskColumns   = `id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled`
	resultColumns = `task_id, started_at, ended_at, success, error, items_processed,
		errors_count, run_ids, failed_vendors, skipped_vendors`
)

// GetTask returns nil and no error if the task does not exist.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	task, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = $1`, taskID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return task, err
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			interval_seconds = EXCLUDED.interval_seconds,
			last_run = EXCLUDED.last_run,
			next_run = EXCLUDED.next_run,
			last_error = EXCLUDED.last_error,
			last_success = EXCLUDED.last_success,
			enabled = EXCLUDED.enabled
	`, task.ID, task.Name, int64(task.Interval.Seconds()),
		optTime(task.LastRun), optTime(task.NextRun), optString(task.LastError),
		optTime(task.LastSuccess), task.Enabled)
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scheduled_tasks WHERE id = $1`, taskID); err != nil {
		return fmt.Errorf("deleting scheduled task: %w", err)
	}
	return nil
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, result.TaskID, result.StartedAt, result.EndedAt, result.Success,
		optString(result.Error), result.ItemsProcessed, result.ErrorsCount,
		result.RunIDs, result.FailedVendors, result.SkippedVendors)
	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+resultColumns+`
		FROM task_results WHERE task_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		var r domain.TaskResult
		var errMsg *string
		if err := rows.Scan(&r.TaskID, &r.StartedAt, &r.EndedAt, &r.Success, &errMsg, &r.ItemsProcessed,
			&r.ErrorsCount, &r.RunIDs, &r.FailedVendors, &r.SkippedVendors); err != nil {
			return nil, fmt.Errorf("scanning task result: %w", err)
		}
		r.Error = derefString(errMsg)
		results = append(results, r)
	}
	return results, rows.Err()
}

// PruneHistory keeps the most recent keep results per task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM task_results WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_results
			) ranked WHERE rn > $1
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	var intervalSeconds int64
	var lastRun, nextRun, lastSuccess *time.Time
	var lastError *string
	err := row.Scan(&task.ID, &task.Name, &intervalSeconds, &lastRun, &nextRun,
		&lastError, &lastSuccess, &task.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled task: %w", err)
	}
	task.Interval = time.Duration(intervalSeconds) * time.Second
	task.LastRun = derefTime(lastRun)
	task.NextRun = derefTime(nextRun)
	task.LastSuccess = derefTime(lastSuccess)
	task.LastError = derefString(lastError)
	return &task, nil
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
