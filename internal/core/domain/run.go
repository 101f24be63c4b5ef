package domain

import "time"

// RunStatus is the lifecycle state of a ScraperRun.
type RunStatus string

// Run states. Completed and failed are terminal.
const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal returns true once a run can no longer change.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// ScraperRun records one collection job against one vendor.
type ScraperRun struct {
	// ID is the unique run identifier.
	ID string `json:"id"`

	// VendorID is the vendor this run collected from.
	VendorID string `json:"vendor_id"`

	// Status is the current lifecycle state.
	Status RunStatus `json:"status"`

	// StartedAt is when the run entered the running state.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ProductsScraped counts observations applied to the ledger.
	ProductsScraped int `json:"products_scraped"`

	// ErrorsCount counts failed queries and rejected items.
	ErrorsCount int `json:"errors_count"`

	// DurationSeconds is CompletedAt - StartedAt in whole seconds.
	DurationSeconds *int `json:"duration_seconds,omitempty"`

	// ErrorDetails holds structured failure context for failed runs.
	ErrorDetails map[string]any `json:"error_details,omitempty"`
}

// NewScraperRun creates a pending run for a vendor.
func NewScraperRun(id, vendorID string) *ScraperRun {
	return &ScraperRun{
		ID:       id,
		VendorID: vendorID,
		Status:   RunStatusPending,
	}
}

// Start moves the run into the running state.
func (r *ScraperRun) Start(at time.Time) {
	r.Status = RunStatusRunning
	r.StartedAt = at
}

// Complete finishes the run successfully with its aggregated counts.
func (r *ScraperRun) Complete(at time.Time, scraped, errs int) {
	r.finish(at, RunStatusCompleted)
	r.ProductsScraped = scraped
	r.ErrorsCount = errs
}

// Fail finishes the run with a failure, keeping the counts collected so far.
func (r *ScraperRun) Fail(at time.Time, scraped, errs int, cause error) {
	r.finish(at, RunStatusFailed)
	r.ProductsScraped = scraped
	r.ErrorsCount = errs
	if cause != nil {
		r.ErrorDetails = map[string]any{"error": cause.Error()}
	}
}

func (r *ScraperRun) finish(at time.Time, status RunStatus) {
	r.Status = status
	r.CompletedAt = &at
	secs := int(at.Sub(r.StartedAt) / time.Second)
	r.DurationSeconds = &secs
}

// RunSummary aggregates one orchestration pass across vendors.
type RunSummary struct {
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    time.Time    `json:"completed_at"`
	Queries        []string     `json:"queries"`
	TotalProducts  int          `json:"total_products"`
	TotalErrors    int          `json:"total_errors"`
	FailedVendors  []string     `json:"failed_vendors,omitempty"`
	SkippedVendors []string     `json:"skipped_vendors,omitempty"`
	Runs           []ScraperRun `json:"runs"`
}

// Add folds a finished vendor run into the summary.
func (s *RunSummary) Add(run ScraperRun) {
	s.Runs = append(s.Runs, run)
	s.TotalProducts += run.ProductsScraped
	s.TotalErrors += run.ErrorsCount
	if run.Status == RunStatusFailed {
		s.FailedVendors = append(s.FailedVendors, run.VendorID)
	}
}
