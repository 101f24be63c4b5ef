package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, vendor_id, status, started_at, completed_at,
	products_scraped, errors_count, duration_seconds, error_details`

// SaveRun creates or updates a run.
func (r *runStore) SaveRun(ctx context.Context, run *domain.ScraperRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	details, err := marshalDetails(run.ErrorDetails)
	if err != nil {
		return err
	}
	var completedAt, duration any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}
	if run.DurationSeconds != nil {
		duration = *run.DurationSeconds
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO scraper_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			products_scraped = excluded.products_scraped,
			errors_count = excluded.errors_count,
			duration_seconds = excluded.duration_seconds,
			error_details = excluded.error_details
	`, run.ID, run.VendorID, string(run.Status), formatTime(run.StartedAt), completedAt,
		run.ProductsScraped, run.ErrorsCount, duration, details)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *runStore) GetRun(ctx context.Context, id string) (*domain.ScraperRun, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM scraper_runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns runs matching the filter, most recent first.
func (r *runStore) ListRuns(ctx context.Context, filter driven.RunFilter) ([]domain.ScraperRun, error) {
	var where []string
	var args []any
	if filter.VendorID != "" {
		where = append(where, "vendor_id = ?")
		args = append(args, filter.VendorID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + runColumns + ` FROM scraper_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScraperRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// scanRun scans a scraper run row.
func scanRun(row scanner) (*domain.ScraperRun, error) {
	var run domain.ScraperRun
	var status, startedAt string
	var completedAt, details sql.NullString
	var duration sql.NullInt64

	if err := row.Scan(&run.ID, &run.VendorID, &status, &startedAt, &completedAt,
		&run.ProductsScraped, &run.ErrorsCount, &duration, &details); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	var err error
	run.Status = domain.RunStatus(status)
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	if duration.Valid {
		secs := int(duration.Int64)
		run.DurationSeconds = &secs
	}
	if run.ErrorDetails, err = unmarshalDetails(details); err != nil {
		return nil, err
	}
	return &run, nil
}
