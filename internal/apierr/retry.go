package apierr

import (
	"context"
	"fmt"
	"time"
)

// Default retry parameters.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// RetryConfig holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - MaxAttempts < 1 becomes 1 (single attempt)
//   - InitialDelay <= 0 becomes 1ms
//   - MaxDelay <= 0 becomes InitialDelay
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnRetry is called before each backoff sleep with the number of the
	// upcoming attempt, the delay and the error that caused the retry.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// normalize ensures all RetryConfig fields have valid values.
func (c *RetryConfig) normalize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.InitialDelay
	}
}

// RetryWithBackoff executes fn with exponential backoff retry.
// fn receives the 1-based attempt number. It retries only while shouldRetry
// returns true for the error, doubling the delay each time up to MaxDelay.
// Returns the result, the number of attempts made and the last error.
//
// A cancelled ctx aborts a pending backoff sleep and returns ctx.Err().
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(attempt int) (T, error),
	shouldRetry func(error) bool,
) (T, int, error) {
	cfg.normalize()

	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, delay, lastErr)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return zero, attempt - 1, ctx.Err()
			case <-timer.C:
			}
			// Exponential backoff with cap.
			delay = min(delay*2, cfg.MaxDelay)
		}

		result, err := fn(attempt)
		if err == nil {
			return result, attempt, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, attempt, lastErr
		}
	}

	return zero, cfg.MaxAttempts, fmt.Errorf("max attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}
