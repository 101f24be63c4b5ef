package driven

import "context"

// ReleaseFunc releases a held run lock.
type ReleaseFunc func(ctx context.Context) error

// RunLock guarantees at most one active collection run per vendor.
type RunLock interface {
	// Acquire takes the lock for a vendor without waiting.
	// Returns domain.ErrRunInProgress if another run holds it.
	Acquire(ctx context.Context, vendorID string) (ReleaseFunc, error)
}
