package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// Matcher resolves observations to catalog products.
// It is a best-effort heuristic: a candidate matches when any single
// similarity measure reaches the threshold.
type Matcher struct {
	catalog         driven.CatalogStore
	scorer          *Scorer
	threshold       float64
	defaultCategory string
	metrics         driven.MetricsRecorder

	// mu serialises scan-then-create so concurrent vendors observing the
	// same new product create it once.
	mu sync.Mutex

	now func() time.Time
}

// NewMatcher creates a matcher over the catalog.
// metrics may be nil.
func NewMatcher(catalog driven.CatalogStore, settings domain.PipelineSettings, metrics driven.MetricsRecorder) *Matcher {
	return &Matcher{
		catalog:         catalog,
		scorer:          NewScorer(),
		threshold:       settings.SimilarityThreshold,
		defaultCategory: settings.DefaultCategory,
		metrics:         metrics,
		now:             time.Now,
	}
}

// Reconfigure replaces the similarity threshold and default category.
// It waits for an in-flight resolve to finish.
func (m *Matcher) Reconfigure(settings domain.PipelineSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = settings.SimilarityThreshold
	m.defaultCategory = settings.DefaultCategory
}

// Resolve returns the existing product the observation refers to, or
// creates one. Malformed observations are rejected with
// domain.ErrMalformedObservation before the catalog is read.
func (m *Matcher) Resolve(ctx context.Context, obs domain.Observation) (domain.MatchResult, error) {
	if err := obs.Validate(); err != nil {
		return domain.MatchResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates, err := m.catalog.ListProducts(ctx)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	best, score := m.bestCandidate(obs.RawName, candidates)
	if best != nil && score >= m.threshold {
		logger.Debug("matched %q to %q (score %.1f)", obs.RawName, best.Name, score)
		m.record(domain.MatchOutcomeMatched)
		return domain.MatchResult{Outcome: domain.MatchOutcomeMatched, Product: best, Score: score}, nil
	}

	product, err := m.create(ctx, obs)
	if err != nil {
		return domain.MatchResult{}, err
	}
	logger.Debug("created product %q (best score %.1f)", product.Name, score)
	m.record(domain.MatchOutcomeCreated)
	return domain.MatchResult{Outcome: domain.MatchOutcomeCreated, Product: product, Score: score}, nil
}

// bestCandidate scans candidates in catalog order. Ties keep the earlier candidate.
func (m *Matcher) bestCandidate(name string, candidates []domain.Product) (*domain.Product, float64) {
	keywords := ExtractKeywords(name)

	var best *domain.Product
	bestScore := 0.0
	for i := range candidates {
		score := m.scorer.Score(name, keywords, candidates[i].Name).Composite()
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	return best, bestScore
}

func (m *Matcher) create(ctx context.Context, obs domain.Observation) (*domain.Product, error) {
	categoryID, err := m.resolveCategory(ctx, obs.RawName)
	if err != nil {
		return nil, err
	}

	now := m.now()
	product := &domain.Product{
		ID:         uuid.New().String(),
		Name:       obs.RawName,
		Brand:      InferBrand(obs.RawName),
		CategoryID: categoryID,
		ImageURL:   obs.ImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.catalog.SaveProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// resolveCategory infers a category, falling back to the default.
// A missing category yields nil, not an error.
func (m *Matcher) resolveCategory(ctx context.Context, name string) (*string, error) {
	for _, slug := range []string{InferCategory(name), m.defaultCategory} {
		if slug == "" {
			continue
		}
		cat, err := m.catalog.GetCategoryByName(ctx, slug)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		id := cat.ID
		return &id, nil
	}
	return nil, nil
}

func (m *Matcher) record(outcome domain.MatchOutcome) {
	if m.metrics != nil {
		m.metrics.MatchResolved(outcome)
	}
}
