package ingest

import "context"

// Session is the authenticated handle a Source yields for the duration of
// one ingest run.
type Session interface {
	// Streams returns the stream names this session exposes, in the order
	// the controller should drive them.
	Streams() []string
}

// Source opens an authenticated session against one external API and
// enumerates its streams. Implementations are scoped resources: Open's
// release function is guaranteed to run once the controller is done with
// the session, success or failure.
type Source interface {
	Open(ctx context.Context) (session Session, release func(), err error)
}

// Retry runs f up to attempts times with exponential backoff, returning
// the last error if every attempt fails. backoff(n) is called to compute
// the sleep duration before attempt n+1 (n is zero-based).
func Retry(ctx context.Context, attempts int, backoff func(attempt int) (sleepNanos int64), f func() error) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f(); err != nil {
			lastErr = err
			if attempt < attempts-1 {
				sleep(ctx, backoff(attempt))
			}
			continue
		}
		return nil
	}
	return lastErr
}
