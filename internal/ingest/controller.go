package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/catalog/store"
	"onyx.dev/onyx/internal/onyxerr"
	"onyx.dev/onyx/internal/servicebus"
)

// Clock abstracts "now" so ingest runs are deterministic in tests.
type Clock func() time.Time

// Request is one ingest run's inputs.
type Request struct {
	Identity              Identity
	IntegrationID         uuid.UUID
	RequestInterval       *model.Interval
	DefaultBeginningDelta time.Duration
}

// StreamDriver pairs a StreamContext with the already-typed Stream it
// drives. Request/Response are erased behind a closure so the controller
// can hold a homogeneous slice of streams with different wire types.
type StreamDriver struct {
	Context StreamContext
	// Run drips records for interval into out, closing out when done.
	Run func(ctx context.Context, interval model.Interval, out chan<- Batch) error
}

// NewStreamDriver adapts a typed Stream into a StreamDriver.
func NewStreamDriver[Request, Response any](sc StreamContext, s Stream[Request, Response]) StreamDriver {
	return StreamDriver{
		Context: sc,
		Run: func(ctx context.Context, interval model.Interval, out chan<- Batch) error {
			return Drip(ctx, s, sc, interval, out)
		},
	}
}

// Controller orchestrates a single ingest run for one integration.
type Controller struct {
	States      store.IngestStateRepository
	Integration store.IntegrationRepository
	Lock        store.RowLocker
	Dispatcher  *servicebus.Dispatcher
	Clock       Clock
	QueueDepth  int
	DrainTimeout time.Duration
}

// NewController returns a ready-to-use Controller. clock defaults to
// time.Now if nil.
func NewController(states store.IngestStateRepository, integrations store.IntegrationRepository, lock store.RowLocker, dispatcher *servicebus.Dispatcher, clock Clock) *Controller {
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		States:       states,
		Integration:  integrations,
		Lock:         lock,
		Dispatcher:   dispatcher,
		Clock:        clock,
		QueueDepth:   64,
		DrainTimeout: 30 * time.Second,
	}
}

// StreamSinks is the set of sinks a single stream writes to: staging and
// embed, both implementing the Sink interface.
type StreamSinks struct {
	Staging Sink
	Embed   Sink
}

// Run executes one ingest run. source yields the authenticated session;
// streamsFor builds the StreamDriver + sinks for each stream name the
// session reports.
func (c *Controller) Run(ctx context.Context, req Request, source Source, streamsFor func(streamName string) (StreamDriver, StreamSinks)) error {
	lockKey := "ingest:" + req.IntegrationID.String()
	release, err := c.Lock.TryLock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer release()

	state, err := c.States.Load(ctx, req.IntegrationID)
	if err != nil {
		return err
	}

	interval := c.deriveInterval(req, state)

	integration, err := c.Integration.Get(ctx, req.IntegrationID)
	if err != nil {
		return err
	}
	integration.SyncStatus = model.SyncStatusSyncing
	integration.SyncError = ""
	if err := c.Integration.Save(ctx, integration); err != nil {
		return err
	}

	scope := servicebus.NewScope()
	defer scope.Close()

	session, err := servicebus.Acquire(scope, func() (Session, func(), error) {
		return source.Open(ctx)
	})
	if err != nil {
		return c.finalize(ctx, state, integration, interval, err)
	}

	runErr := c.runStreams(ctx, session.Streams(), interval, streamsFor, state)
	return c.finalize(ctx, state, integration, interval, runErr)
}

func (c *Controller) deriveInterval(req Request, state *model.IngestState) model.Interval {
	if req.RequestInterval != nil {
		return *req.RequestInterval
	}
	now := c.Clock().Unix()
	start := now - int64(req.DefaultBeginningDelta.Seconds())
	if state.LastSuccessBookmark != nil {
		start = *state.LastSuccessBookmark
	}
	return model.Interval{Start: start, End: now}
}

func (c *Controller) runStreams(ctx context.Context, streamNames []string, interval model.Interval, streamsFor func(string) (StreamDriver, StreamSinks), state *model.IngestState) error {
	type streamResult struct {
		name string
		err  error
	}

	results, err := servicebus.Map(ctx, c.Dispatcher, streamNames, func(ctx context.Context, name string) (streamResult, error) {
		err := c.runOneStream(ctx, name, interval, streamsFor, state)
		return streamResult{name: name, err: err}, nil
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("stream %q: %w", r.name, r.err)
		}
	}
	return nil
}

func (c *Controller) runOneStream(ctx context.Context, name string, interval model.Interval, streamsFor func(string) (StreamDriver, StreamSinks), state *model.IngestState) error {
	driver, sinks := streamsFor(name)

	if err := sinks.Staging.EnsureTarget(ctx, driver.Context); err != nil {
		return err
	}
	if err := sinks.Embed.EnsureTarget(ctx, driver.Context); err != nil {
		return err
	}

	stagingWorker := NewQueueWorker(sinks.Staging, driver.Context, c.QueueDepth)
	embedWorker := NewQueueWorker(sinks.Embed, driver.Context, c.QueueDepth)
	stagingWorker.Start(ctx)
	embedWorker.Start(ctx)

	batches := make(chan Batch, c.QueueDepth)
	dripErrCh := make(chan error, 1)
	go func() { dripErrCh <- driver.Run(ctx, interval, batches) }()

	var writeErr error
	for batch := range batches {
		if writeErr != nil {
			continue // drain the channel so the producer goroutine never blocks forever
		}
		if err := stagingWorker.Write(ctx, batch); err != nil && writeErr == nil {
			writeErr = err
		}
		if err := embedWorker.Write(ctx, batch); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	dripErr := <-dripErrCh

	drainCtx, cancel := context.WithTimeout(ctx, c.DrainTimeout)
	defer cancel()
	drainErr := DrainAll(drainCtx, []*QueueWorker{stagingWorker, embedWorker})

	if dripErr != nil {
		return dripErr
	}
	if writeErr != nil {
		return writeErr
	}
	if drainErr != nil {
		return drainErr
	}

	state.Bookmarks[name] = MergeInterval(state.Bookmarks[name], interval)
	return nil
}

func (c *Controller) finalize(ctx context.Context, state *model.IngestState, integration *model.Integration, interval model.Interval, runErr error) error {
	now := c.Clock()
	state.LastSyncedAt = &now
	integration.LastSyncedAt = &now

	if runErr != nil {
		state.SyncStatus = model.SyncStatusError
		state.SyncError = runErr.Error()
		integration.SyncStatus = model.SyncStatusError
		integration.SyncError = runErr.Error()
	} else {
		end := interval.End
		state.SyncStatus = model.SyncStatusSuccess
		state.SyncError = ""
		state.LastSuccessBookmark = &end
		integration.SyncStatus = model.SyncStatusSuccess
		integration.SyncError = ""
	}

	if err := c.States.Save(ctx, state); err != nil {
		return err
	}
	if err := c.Integration.Save(ctx, integration); err != nil {
		return err
	}
	if runErr != nil {
		return onyxerr.Wrap(onyxerr.KindFailed, runErr, "ingest run failed")
	}
	return nil
}
