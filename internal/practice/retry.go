package practice

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/repertoire/internal/store"
)

// RetryConfig controls retry behavior for transient storage errors.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultRetryConfig returns the standard storage retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     time.Second,
		Multiplier:  2.0,
	}
}

// shouldRetry determines if a storage error is transient.
func shouldRetry(err error) bool {
	// Cancellation is never retried. A deadline here is the per-attempt
	// timeout; the caller's own deadline is checked before this.
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Conflicts are resolved by reloading, not by repeating the same write.
	if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
		return false
	}
	if errors.Is(err, store.ErrAlreadyApplied) {
		return false
	}
	var corrupt *errCorrupt
	if errors.As(err, &corrupt) {
		return false
	}
	return true
}

// backoff computes the wait duration for the given attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	wait := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt))
	if wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// do runs fn until it succeeds, fails permanently, or attempts run out.
// Each attempt gets its own timeout when timeout > 0.
func (c RetryConfig) do(ctx context.Context, timeout time.Duration, onRetry func(attempt int, err error), fn func(context.Context) error) error {
	attempts := max(c.MaxAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		err := callWithTimeout(ctx, timeout, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
	return lastErr
}

func callWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(cctx)
}
