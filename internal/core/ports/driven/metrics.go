package driven

import (
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// MetricsRecorder receives pipeline measurements.
type MetricsRecorder interface {
	// RunFinished records a terminal vendor run.
	RunFinished(vendorID string, status domain.RunStatus, duration time.Duration)

	// ObservationApplied records one ledger outcome.
	ObservationApplied(vendorID string, outcome domain.UpdateOutcome)

	// MatchResolved records one matcher outcome.
	MatchResolved(outcome domain.MatchOutcome)

	// QueryFailed records a query that failed after retries.
	QueryFailed(vendorID string)

	// RetryAttempted records a retried vendor call.
	RetryAttempted(vendorID string)
}
