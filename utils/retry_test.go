package utils

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errRetryable = errors.New("try again")

func init() {
	SetOutput(io.Discard, "text")
}

func TestRetryIf_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryIf(context.Background(), 3, time.Millisecond, func(err error) bool {
		return errors.Is(err, errRetryable)
	}, func() error {
		calls++
		if calls < 3 {
			return errRetryable
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryIf_Exhausted(t *testing.T) {
	calls := 0
	err := RetryIf(context.Background(), 3, time.Millisecond, func(error) bool { return true }, func() error {
		calls++
		return errRetryable
	})

	assert.ErrorIs(t, err, errRetryable)
	assert.Equal(t, 3, calls)
}

func TestRetryIf_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("bad request")
	calls := 0
	err := RetryIf(context.Background(), 5, time.Millisecond, func(err error) bool {
		return errors.Is(err, errRetryable)
	}, func() error {
		calls++
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestRetryIf_BackoffDoubles(t *testing.T) {
	var stamps []time.Time
	_ = RetryIf(context.Background(), 3, 20*time.Millisecond, func(error) bool { return true }, func() error {
		stamps = append(stamps, time.Now())
		return errRetryable
	})

	if assert.Len(t, stamps, 3) {
		first := stamps[1].Sub(stamps[0])
		second := stamps[2].Sub(stamps[1])
		assert.GreaterOrEqual(t, first, 20*time.Millisecond)
		assert.GreaterOrEqual(t, second, 40*time.Millisecond)
	}
}

func TestRetryIf_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryIf(ctx, 5, time.Hour, func(error) bool { return true }, func() error {
		calls++
		cancel()
		return errRetryable
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleep_ZeroDuration(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
