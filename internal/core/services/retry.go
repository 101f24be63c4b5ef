package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// RetryPolicy bounds how a vendor call is retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the backoff base; retry n waits BaseDelay * 2^n.
	BaseDelay time.Duration
}

// RetryError is returned when every attempt failed.
type RetryError struct {
	VendorID string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("vendor %s: gave up after %d attempts: %v", e.VendorID, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// RetryExecutor runs vendor operations under that vendor's rate limit
// with bounded exponential backoff. One executor exists per vendor run;
// executors for different vendors never block each other.
type RetryExecutor struct {
	vendorID string
	limiter  *VendorLimiter
	policy   RetryPolicy
	metrics  driven.MetricsRecorder

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryExecutor creates an executor for a vendor.
// metrics may be nil.
func NewRetryExecutor(
	vendorID string,
	limiter *VendorLimiter,
	policy RetryPolicy,
	metrics driven.MetricsRecorder,
) *RetryExecutor {
	if limiter == nil {
		limiter = NewVendorLimiter(0)
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &RetryExecutor{
		vendorID: vendorID,
		limiter:  limiter,
		policy:   policy,
		metrics:  metrics,
		sleep:    sleepContext,
	}
}

// Backoff returns the delay before retry n (0-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(n))
}

// Execute runs op until it succeeds, the retries are exhausted, or the
// error is permanent. Every attempt first waits on the vendor limiter.
// After the last failure it returns a *RetryError wrapping that failure.
// Panics inside op are converted into errors.
func (e *RetryExecutor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0

	for n := 0; n <= e.policy.MaxRetries; n++ {
		if n > 0 {
			if e.metrics != nil {
				e.metrics.RetryAttempted(e.vendorID)
			}
			delay := e.policy.Backoff(n - 1)
			logger.Debug("vendor %s: retry %d/%d in %s: %v", e.vendorID, n, e.policy.MaxRetries, delay, lastErr)
			if err := e.sleep(ctx, delay); err != nil {
				break
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		attempts++
		lastErr = safeCall(ctx, op)
		if lastErr == nil {
			return nil
		}

		var rle *domain.RateLimitError
		if errors.As(lastErr, &rle) {
			e.limiter.Defer(rle.RetryAfter)
		}
		if !retryable(ctx, lastErr) {
			break
		}
	}

	return &RetryError{VendorID: e.vendorID, Attempts: attempts, Err: lastErr}
}

// ExecuteValue is Execute for operations that produce a value.
func ExecuteValue[T any](ctx context.Context, e *RetryExecutor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// retryable reports whether another attempt could succeed.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, domain.ErrVendorRejected),
		errors.Is(err, domain.ErrSourceClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

func safeCall(ctx context.Context, op func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return op(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
