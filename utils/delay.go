package utils

import (
	"context"
	"math/rand"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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

// RandomDelay sleeps for a random duration between min and max.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	diff := max - min
	if diff <= 0 {
		return Sleep(ctx, min)
	}
	return Sleep(ctx, min+time.Duration(rand.Int63n(int64(diff))))
}
