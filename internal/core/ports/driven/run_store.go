package driven

import (
	"context"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// RunFilter narrows a run listing. Zero fields do not filter.
type RunFilter struct {
	VendorID string
	Status   domain.RunStatus
	Limit    int
}

// RunStore persists scraper runs. Runs are never deleted by the core.
type RunStore interface {
	// SaveRun creates or updates a run.
	SaveRun(ctx context.Context, run *domain.ScraperRun) error

	// GetRun retrieves a run by ID.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, id string) (*domain.ScraperRun, error)

	// ListRuns returns runs matching the filter, most recent first.
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.ScraperRun, error)
}
