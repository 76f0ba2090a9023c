package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Sink is the common write-then-drain contract shared by StagingSink and
// EmbedSink: each sink owns a bounded FIFO queue and a drain worker that
// consumes it, so the controller can fan a stream's batches out to every
// sink without blocking on the slowest one.
type Sink interface {
	// EnsureTarget idempotently creates the sink's schema/target for sc.
	EnsureTarget(ctx context.Context, sc StreamContext) error
	// WriteBatch persists one batch. Called from the drain worker only.
	WriteBatch(ctx context.Context, sc StreamContext, batch Batch) error
}

// FaultedError wraps the error that put a sink into a faulted state.
type FaultedError struct{ Cause error }

func (e *FaultedError) Error() string { return fmt.Sprintf("sink faulted: %v", e.Cause) }
func (e *FaultedError) Unwrap() error { return e.Cause }

// QueueWorker drains a bounded FIFO queue of batches into a Sink, tracking
// a faulted state once a write fails so that subsequent Write calls fail
// fast instead of silently dropping work.
type QueueWorker struct {
	sink    Sink
	sc      StreamContext
	queue   chan batchOrSentinel
	faulted atomic.Pointer[FaultedError]
	done    chan struct{}
}

type batchOrSentinel struct {
	batch    Batch
	sentinel bool
}

// NewQueueWorker returns a worker with a queue of the given capacity. Call
// Start before Write.
func NewQueueWorker(sink Sink, sc StreamContext, capacity int) *QueueWorker {
	return &QueueWorker{
		sink:  sink,
		sc:    sc,
		queue: make(chan batchOrSentinel, capacity),
		done:  make(chan struct{}),
	}
}

// Start launches the drain goroutine. It runs until a sentinel is
// enqueued (via Close); once the sink faults, it keeps draining the queue
// without writing.
func (w *QueueWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for item := range w.queue {
			if item.sentinel {
				return
			}
			if f := w.faulted.Load(); f != nil {
				continue // already faulted; drain remaining queue without writing
			}
			if err := w.sink.WriteBatch(ctx, w.sc, item.batch); err != nil {
				w.faulted.Store(&FaultedError{Cause: err})
			}
		}
	}()
}

// Write enqueues batch. It fails fast if the sink has already faulted.
func (w *QueueWorker) Write(ctx context.Context, batch Batch) error {
	if f := w.faulted.Load(); f != nil {
		return f
	}
	select {
	case w.queue <- batchOrSentinel{batch: batch}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close enqueues the drain sentinel and waits for the worker to finish, up
// to the context deadline. If the deadline is exceeded the worker is
// abandoned (its goroutine leaks until the channel send it is blocked on,
// if any, unblocks — callers should size queue capacity to make this
// vanishingly rare in practice).
func (w *QueueWorker) Close(ctx context.Context) error {
	select {
	case w.queue <- batchOrSentinel{sentinel: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-w.done:
		return w.Fault()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fault returns the error that faulted the sink, or nil if it never did.
func (w *QueueWorker) Fault() error {
	if f := w.faulted.Load(); f != nil {
		return f
	}
	return nil
}

// DrainAll closes every worker in workers, returning the first fault
// encountered (if any) after every worker has been given the chance to
// drain.
func DrainAll(ctx context.Context, workers []*QueueWorker) error {
	var wg sync.WaitGroup
	errs := make([]error, len(workers))
	for i, w := range workers {
		i, w := i, w
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = w.Close(ctx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
