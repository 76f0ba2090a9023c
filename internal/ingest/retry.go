package ingest

import (
	"context"
	"time"
)

func sleep(ctx context.Context, nanos int64) {
	if nanos <= 0 {
		return
	}
	timer := time.NewTimer(time.Duration(nanos))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ExponentialBackoff returns a backoff function suitable for Retry: base
// doubled every attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) func(attempt int) int64 {
	return func(attempt int) int64 {
		d := base << uint(attempt)
		if d > max || d < 0 {
			d = max
		}
		return int64(d)
	}
}
