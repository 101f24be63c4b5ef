package memory

import (
	"context"
	"sort"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun creates or updates a run.
func (r *runStore) SaveRun(_ context.Context, run *domain.ScraperRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// GetRun retrieves a run by ID.
func (r *runStore) GetRun(_ context.Context, id string) (*domain.ScraperRun, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns runs matching the filter, most recent first.
func (r *runStore) ListRuns(_ context.Context, filter driven.RunFilter) ([]domain.ScraperRun, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ScraperRun
	for _, run := range s.runs {
		if filter.VendorID != "" && run.VendorID != filter.VendorID {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}
