package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

type runStore struct {
	pool *pgxpool.Pool
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, vendor_id, status, started_at, completed_at,
	products_scraped, errors_count, duration_seconds, error_details`

func (r *runStore) SaveRun(ctx context.Context, run *domain.ScraperRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	details, err := encodeDetails(run.ErrorDetails)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO scraper_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			products_scraped = EXCLUDED.products_scraped,
			errors_count = EXCLUDED.errors_count,
			duration_seconds = EXCLUDED.duration_seconds,
			error_details = EXCLUDED.error_details
	`, run.ID, run.VendorID, string(run.Status), run.StartedAt, run.CompletedAt,
		run.ProductsScraped, run.ErrorsCount, run.DurationSeconds, details)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (r *runStore) GetRun(ctx context.Context, id string) (*domain.ScraperRun, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM scraper_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (r *runStore) ListRuns(ctx context.Context, filter driven.RunFilter) ([]domain.ScraperRun, error) {
	var w where
	if filter.VendorID != "" {
		w.add("vendor_id = $%d", filter.VendorID)
	}
	if filter.Status != "" {
		w.add("status = $%d", string(filter.Status))
	}

	query := `SELECT ` + runColumns + ` FROM scraper_runs` + w.String() + ` ORDER BY started_at DESC, id DESC`
	args := w.args
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScraperRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.ScraperRun, error) {
	var run domain.ScraperRun
	var status string
	var details []byte
	err := row.Scan(&run.ID, &run.VendorID, &status, &run.StartedAt, &run.CompletedAt,
		&run.ProductsScraped, &run.ErrorsCount, &run.DurationSeconds, &details)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if run.ErrorDetails, err = decodeDetails(details); err != nil {
		return nil, err
	}
	return &run, nil
}
