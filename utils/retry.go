package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to maxRetries times, doubling the wait after each failure
// starting at 2 seconds. It returns the last error once attempts run out.
//
// Usage:
//
//	err := utils.Retry(ctx, 3, func() error {
//	    return client.Fetch(ctx, city)
//	})
func Retry(ctx context.Context, maxRetries int, fn func() error) error {
	return RetryIf(ctx, maxRetries, 2*time.Second, func(error) bool { return true }, fn)
}

// RetryIf is Retry with a configurable first delay and a predicate that
// decides which errors are worth another attempt. Errors the predicate
// rejects are returned immediately, unwrapped.
//
// EXPONENTIAL BACKOFF with initial=1s:
//
//	attempt 1 fails → wait 1s
//	attempt 2 fails → wait 2s
//	attempt 3 fails → give up
func RetryIf(ctx context.Context, maxRetries int, initial time.Duration, retryable func(error) bool, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	wait := initial

	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			Warn("Attempt %d/%d failed: %v, retrying in %v", attempt, maxRetries, lastErr, wait)
			if err := Sleep(ctx, wait); err != nil {
				return err
			}
			wait *= 2
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}
