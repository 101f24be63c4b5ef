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
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// Ensure Collector implements the interface.
var _ driving.Collector = (*Collector)(nil)

// ProductResolver decides which catalog product an observation refers to.
type ProductResolver interface {
	Resolve(ctx context.Context, obs domain.Observation) (domain.MatchResult, error)
}

// PriceApplier writes an observation into the price ledger.
type PriceApplier interface {
	Apply(ctx context.Context, product *domain.Product, vendorID string, obs domain.Observation) (domain.PriceUpdateResult, error)
}

// Collector runs collection passes. Each active vendor gets its own
// goroutine, limiter and retry executor; queries within a vendor run
// sequentially.
type Collector struct {
	factory  driven.VendorFactory
	catalog  driven.CatalogStore
	runs     driven.RunStore
	resolver ProductResolver
	ledger   PriceApplier
	runLock  driven.RunLock
	metrics  driven.MetricsRecorder

	cfgMu    sync.RWMutex
	vendors  []domain.VendorConfig
	settings domain.PipelineSettings
	limiters map[string]*VendorLimiter

	// Status tracking
	mu         sync.RWMutex
	activeRuns map[string]*driving.CollectionStatus

	now func() time.Time
}

// NewCollector creates a collector.
// runLock defaults to an in-process lock when nil; metrics may be nil.
func NewCollector(
	factory driven.VendorFactory,
	catalog driven.CatalogStore,
	runs driven.RunStore,
	resolver ProductResolver,
	ledger PriceApplier,
	runLock driven.RunLock,
	metrics driven.MetricsRecorder,
	settings domain.PipelineSettings,
	vendors []domain.VendorConfig,
) *Collector {
	if runLock == nil {
		runLock = NewLocalRunLock()
	}
	return &Collector{
		factory:    factory,
		catalog:    catalog,
		runs:       runs,
		resolver:   resolver,
		ledger:     ledger,
		runLock:    runLock,
		metrics:    metrics,
		vendors:    vendors,
		settings:   settings,
		limiters:   make(map[string]*VendorLimiter),
		activeRuns: make(map[string]*driving.CollectionStatus),
		now:        time.Now,
	}
}

// Reconfigure replaces the vendor list and pipeline settings used by
// subsequent runs. Runs already in progress are unaffected.
func (c *Collector) Reconfigure(settings domain.PipelineSettings, vendors []domain.VendorConfig) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.settings = settings
	c.vendors = vendors
}

// limiter returns the vendor's limiter. It outlives single runs so the
// minimum delay also holds between consecutive passes; a changed rate
// limit replaces it.
func (c *Collector) limiter(cfg domain.VendorConfig) *VendorLimiter {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	if l, ok := c.limiters[cfg.ID]; ok && l.Interval() == cfg.RateLimit() {
		return l
	}
	l := NewVendorLimiter(cfg.RateLimit())
	c.limiters[cfg.ID] = l
	return l
}

func (c *Collector) config() (domain.PipelineSettings, []domain.VendorConfig) {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	vendors := make([]domain.VendorConfig, 0, len(c.vendors))
	for _, v := range c.vendors {
		if v.Active {
			vendors = append(vendors, v)
		}
	}
	return c.settings, vendors
}

// Run collects every query from every active vendor. An empty query list
// uses the configured queries. Vendor failures are recorded on their
// runs and in the summary; the returned error is reserved for a pass
// that could not start at all.
func (c *Collector) Run(ctx context.Context, queries []string) (*domain.RunSummary, error) {
	return c.RunVendors(ctx, queries, nil)
}

// RunVendors is Run restricted to the given active vendors. An empty
// vendorIDs list means every active vendor.
func (c *Collector) RunVendors(ctx context.Context, queries, vendorIDs []string) (*domain.RunSummary, error) {
	settings, vendors := c.config()
	if len(vendorIDs) > 0 {
		vendors = selectVendors(vendors, vendorIDs)
	}
	if len(queries) == 0 {
		queries = settings.Queries
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries configured", domain.ErrInvalidInput)
	}
	if len(vendors) == 0 {
		return nil, fmt.Errorf("%w: no active vendors configured", domain.ErrInvalidInput)
	}

	summary := &domain.RunSummary{StartedAt: c.now(), Queries: queries}
	logger.Section("Collection")
	logger.Info("Starting collection: %d vendors, %d queries", len(vendors), len(queries))

	type outcome struct {
		run     *domain.ScraperRun
		skipped bool
	}
	outcomes := make([]outcome, len(vendors))

	var wg sync.WaitGroup
	for i, vendor := range vendors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, skipped := c.runVendor(ctx, vendor, queries, settings)
			outcomes[i] = outcome{run: run, skipped: skipped}
		}()
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.skipped {
			summary.SkippedVendors = append(summary.SkippedVendors, vendors[i].ID)
			continue
		}
		summary.Add(*o.run)
	}
	summary.CompletedAt = c.now()

	logger.Info("Collection complete: %d products, %d errors, %d failed vendors",
		summary.TotalProducts, summary.TotalErrors, len(summary.FailedVendors))
	return summary, nil
}

func selectVendors(vendors []domain.VendorConfig, ids []string) []domain.VendorConfig {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]domain.VendorConfig, 0, len(ids))
	for _, v := range vendors {
		if wanted[v.ID] {
			selected = append(selected, v)
		}
	}
	return selected
}

// runVendor executes one vendor run. It reports skipped when another
// run already holds the vendor.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (c *Collector) runVendor(
	ctx context.Context,
	cfg domain.VendorConfig,
	queries []string,
	settings domain.PipelineSettings,
) (run *domain.ScraperRun, skipped bool) {
	// Bookkeeping must survive cancellation of the pass.
	bookCtx := context.WithoutCancel(ctx)

	run = domain.NewScraperRun(uuid.New().String(), cfg.ID)
	run.Start(c.now())

	release, err := c.runLock.Acquire(ctx, cfg.ID)
	if errors.Is(err, domain.ErrRunInProgress) {
		logger.Warn("vendor %s: run already in progress, skipping", cfg.ID)
		return nil, true
	}
	if err != nil {
		c.finishFailed(bookCtx, run, 0, 0, fmt.Errorf("acquire run lock: %w", err))
		return run, false
	}
	defer func() {
		if err := release(bookCtx); err != nil {
			logger.Warn("vendor %s: release run lock: %v", cfg.ID, err)
		}
	}()

	if err := c.runs.SaveRun(bookCtx, run); err != nil {
		logger.Error("vendor %s: record run start: %v", cfg.ID, err)
	}

	status := &driving.CollectionStatus{VendorID: cfg.ID, Running: true, RunID: run.ID}
	c.setStatus(cfg.ID, status)
	defer c.clearStatus(cfg.ID)

	scraped, errs := 0, 0
	defer func() {
		if r := recover(); r != nil {
			c.finishFailed(bookCtx, run, scraped, errs, fmt.Errorf("panic: %v", r))
		}
	}()

	vendor := cfg.Vendor()
	if err := c.catalog.SaveVendor(ctx, &vendor); err != nil {
		c.finishFailed(bookCtx, run, 0, 0, fmt.Errorf("%w: register vendor: %w", domain.ErrCatalogUnavailable, err))
		return run, false
	}

	source, err := c.factory.Create(cfg)
	if err != nil {
		c.finishFailed(bookCtx, run, 0, 0, fmt.Errorf("create source: %w", err))
		return run, false
	}
	defer source.Close()

	policy := RetryPolicy{MaxRetries: settings.MaxRetries, BaseDelay: settings.RetryBaseDelay}
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	executor := NewRetryExecutor(cfg.ID, c.limiter(cfg), policy, c.metrics)

	logger.Info("vendor %s: run %s started", cfg.ID, run.ID)

	for _, query := range queries {
		if ctx.Err() != nil {
			c.finishFailed(bookCtx, run, scraped, errs, domain.ErrRunCancelled)
			return run, false
		}

		observations, err := ExecuteValue(ctx, executor, func(ctx context.Context) ([]domain.Observation, error) {
			return source.Search(ctx, query)
		})
		if err != nil {
			if ctx.Err() != nil {
				c.finishFailed(bookCtx, run, scraped, errs, domain.ErrRunCancelled)
				return run, false
			}
			errs++
			c.updateStatus(cfg.ID, scraped, errs)
			if c.metrics != nil {
				c.metrics.QueryFailed(cfg.ID)
			}
			logger.Warn("vendor %s: query %q failed: %v", cfg.ID, query, err)
			continue
		}

		for _, obs := range observations {
			if obs.VendorID == "" {
				obs.VendorID = cfg.ID
			}
			applied, err := c.applyObservation(ctx, cfg.ID, obs)
			if errors.Is(err, domain.ErrCatalogUnavailable) {
				c.finishFailed(bookCtx, run, scraped, errs, err)
				return run, false
			}
			if applied {
				scraped++
			} else {
				errs++
			}
		}

		c.mu.Lock()
		status.QueriesDone++
		c.mu.Unlock()
		c.updateStatus(cfg.ID, scraped, errs)
	}

	run.Complete(c.now(), scraped, errs)
	c.saveFinished(bookCtx, run)
	logger.Info("vendor %s: run completed: %d products, %d errors", cfg.ID, scraped, errs)
	return run, false
}

// applyObservation resolves and stores one observation. Item failures are
// logged and reported as not applied; only catalog unavailability is
// returned as an error.
func (c *Collector) applyObservation(ctx context.Context, vendorID string, obs domain.Observation) (bool, error) {
	match, err := c.resolver.Resolve(ctx, obs)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			return false, err
		}
		logger.Debug("vendor %s: skip %q: %v", vendorID, obs.RawName, err)
		return false, nil
	}

	result, err := c.ledger.Apply(ctx, match.Product, vendorID, obs)
	if err != nil {
		logger.Warn("vendor %s: store %q: %v", vendorID, obs.RawName, err)
		return false, nil
	}
	if !result.Applied() {
		logger.Debug("vendor %s: rejected %q: %s", vendorID, obs.RawName, result.Reason)
		if c.metrics != nil {
			c.metrics.ObservationApplied(vendorID, result.Outcome)
		}
		return false, nil
	}
	return true, nil
}

func (c *Collector) finishFailed(ctx context.Context, run *domain.ScraperRun, scraped, errs int, cause error) {
	run.Fail(c.now(), scraped, errs, cause)
	c.saveFinished(ctx, run)
	logger.Error("vendor %s: run failed: %v", run.VendorID, cause)
}

func (c *Collector) saveFinished(ctx context.Context, run *domain.ScraperRun) {
	if err := c.runs.SaveRun(ctx, run); err != nil {
		logger.Error("vendor %s: record run outcome: %v", run.VendorID, err)
	}
	if c.metrics != nil {
		var d time.Duration
		if run.DurationSeconds != nil {
			d = time.Duration(*run.DurationSeconds) * time.Second
		}
		c.metrics.RunFinished(run.VendorID, run.Status, d)
	}
}

// Status returns live progress for a vendor.
func (c *Collector) Status(_ context.Context, vendorID string) (*driving.CollectionStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if status, ok := c.activeRuns[vendorID]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}

	return &driving.CollectionStatus{
		VendorID: vendorID,
		Running:  false,
	}, nil
}

func (c *Collector) setStatus(vendorID string, status *driving.CollectionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeRuns[vendorID] = status
}

func (c *Collector) updateStatus(vendorID string, scraped, errs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status, ok := c.activeRuns[vendorID]; ok {
		status.ProductsScraped = scraped
		status.ErrorCount = errs
	}
}

func (c *Collector) clearStatus(vendorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.activeRuns, vendorID)
}
