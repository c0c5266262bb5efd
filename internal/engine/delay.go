package engine

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayFunc picks a pause no longer than limit.
type DelayFunc func(limit time.Duration) time.Duration

// RandomDelay picks a whole number of milliseconds in [1, limit]; a limit
// below one millisecond means no pause.
func RandomDelay(limit time.Duration) time.Duration {
	ms := int64(limit / time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(ms)+1) * time.Millisecond
}

// NoDelay never pauses. Used by tests that want the tightest interleavings.
func NoDelay(time.Duration) time.Duration {
	return 0
}

// sleep pauses for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
