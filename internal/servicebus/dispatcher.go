package servicebus

import (
	"context"
	"sync"
	"time"

	"goa.design/clue/log"
)

// Dispatcher decouples a caller's thread of control from the execution of
// handler work. Go's goroutine scheduler plays the role of the single
// cooperative event loop the rest of the fleet is modelled on; Dispatcher
// adds a bounded worker pool on top of it so that handlers never spawn
// unbounded concurrency, and a teardown barrier so a process can drain
// scheduled (fire-and-forget) work before exiting.
type Dispatcher struct {
	pool chan struct{}

	mu        sync.Mutex
	wg        sync.WaitGroup
	scheduled map[*cancelable]struct{}
}

type cancelable struct {
	cancel context.CancelFunc
}

// NewDispatcher returns a Dispatcher whose worker pool admits at most
// poolSize concurrent Dispatch/Schedule calls at once. A poolSize of zero
// is treated as unbounded.
func NewDispatcher(poolSize int) *Dispatcher {
	d := &Dispatcher{scheduled: make(map[*cancelable]struct{})}
	if poolSize > 0 {
		d.pool = make(chan struct{}, poolSize)
	}
	return d
}

func (d *Dispatcher) acquire(ctx context.Context) error {
	if d.pool == nil {
		return nil
	}
	select {
	case d.pool <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) release() {
	if d.pool != nil {
		<-d.pool
	}
}

// Dispatch runs f on the worker pool and returns a Future for its result.
// The caller may Wait on the future or ignore it; either way the work runs
// to completion (use Schedule instead if "fire and forget, never check the
// result" is the intent).
func Dispatch[T any](ctx context.Context, d *Dispatcher, f func(context.Context) (T, error)) *Future[T] {
	future := newFuture[T]()
	go func() {
		if err := d.acquire(ctx); err != nil {
			var zero T
			future.complete(zero, err)
			return
		}
		defer d.release()
		v, err := f(ctx)
		future.complete(v, err)
	}()
	return future
}

// Schedule dispatches f and registers it with the dispatcher's teardown
// barrier. Failures are logged, never returned to the caller — this is the
// fire-and-forget event-handler path.
func (d *Dispatcher) Schedule(ctx context.Context, name string, f func(context.Context) error) {
	runCtx, cancel := context.WithCancel(ctx)
	token := &cancelable{cancel: cancel}

	d.mu.Lock()
	d.scheduled[token] = struct{}{}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.scheduled, token)
			d.mu.Unlock()
			d.wg.Done()
			cancel()
		}()
		if err := d.acquire(runCtx); err != nil {
			return
		}
		defer d.release()
		if err := f(runCtx); err != nil {
			log.Printf(ctx, "scheduled task %q failed: %v", name, err)
		}
	}()
}

// Map runs f over each element of params in parallel via Dispatch, awaits
// all of them, and returns their results in the same order as params.
func Map[P, R any](ctx context.Context, d *Dispatcher, params []P, f func(context.Context, P) (R, error)) ([]R, error) {
	futures := make([]*Future[R], len(params))
	for i, p := range params {
		p := p
		futures[i] = Dispatch(ctx, d, func(ctx context.Context) (R, error) {
			return f(ctx, p)
		})
	}
	results := make([]R, len(params))
	var firstErr error
	for i, fut := range futures {
		v, err := fut.Wait(ctx)
		results[i] = v
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// Teardown waits for all scheduled (not dispatched) work to finish, up to
// timeout, then cancels anything still outstanding.
func (d *Dispatcher) Teardown(ctx context.Context, timeout time.Duration) {
	waitCh := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		return
	case <-time.After(timeout):
	}

	d.mu.Lock()
	for token := range d.scheduled {
		token.cancel()
	}
	d.mu.Unlock()

	log.Printf(ctx, "dispatcher teardown: timeout exceeded, cancelled outstanding scheduled work")
}
