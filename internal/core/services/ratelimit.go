package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// VendorLimiter enforces the minimum delay between calls to one vendor.
// It uses a token bucket with a burst of one, plus an optional backoff
// window set when the vendor reports throttling.
type VendorLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	interval time.Duration
}

// NewVendorLimiter creates a limiter allowing one call per interval.
// A non-positive interval disables throttling.
func NewVendorLimiter(interval time.Duration) *VendorLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &VendorLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Interval returns the configured minimum delay.
func (l *VendorLimiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the next call may be made.
// It also respects any backoff window set by Defer.
func (l *VendorLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Defer holds further calls back for d, e.g. after a Retry-After response.
func (l *VendorLimiter) Defer(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if until := time.Now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}
