package docuseal

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds a retried operation.
type RetryConfig struct {
	// MaxRetries is the total number of attempts, at least 1
	MaxRetries int
	// Delay is the base wait; attempt n (zero-based) is followed by Delay*(n+1)
	Delay time.Duration
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error, wait time.Duration)
	// ShouldRetry stops retrying when it returns false; the error is then
	// returned as is. Nil retries every error.
	ShouldRetry func(err error) bool
}

// DefaultRetryConfig returns 3 attempts with a 1s base delay
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      time.Second,
	}
}

// Backoff returns the wait after the given zero-based failed attempt.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	return c.Delay * time.Duration(attempt+1)
}

// Validate checks the attempt count and delay
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 1 {
		return &Error{
			Message: fmt.Sprintf("max retries must be at least 1, got %d", c.MaxRetries),
			Code:    CodeInvalidRetryConfig,
		}
	}
	if c.Delay < 0 {
		return &Error{
			Message: fmt.Sprintf("delay must not be negative, got %s", c.Delay),
			Code:    CodeInvalidRetryConfig,
		}
	}
	return nil
}

// wait is replaced in tests
var wait = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry invokes op up to cfg.MaxRetries times, waiting linearly longer after
// each failure. The first success is returned as is. When every attempt
// fails the result is an *Error with code RETRY_EXCEEDED wrapping the last
// failure.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := cfg.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries-1 {
			break
		}

		backoff := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}
		if err := wait(ctx, backoff); err != nil {
			return zero, &Error{
				Message: fmt.Sprintf("operation cancelled after %d attempts", attempt+1),
				Code:    CodeRetryCancelled,
				Details: err,
			}
		}
	}

	return zero, &Error{
		Message: fmt.Sprintf("operation failed after %d retries", cfg.MaxRetries),
		Code:    CodeRetryExceeded,
		Details: lastErr,
	}
}
