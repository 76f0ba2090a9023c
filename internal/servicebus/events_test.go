package servicebus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/servicebus"
)

type agentPublished struct{ agentID string }

func TestEventDeliveredOnlyAfterCommit(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)

	var mu sync.Mutex
	var seen []string
	servicebus.Subscribe(bus, func(_ context.Context, e agentPublished, _ *servicebus.Bus) error {
		mu.Lock()
		seen = append(seen, e.agentID)
		mu.Unlock()
		return nil
	})

	collector := servicebus.NewEventCollector()
	collector.Publish(agentPublished{agentID: "a1"})

	// Not yet delivered: commit hasn't happened.
	time.Sleep(5 * time.Millisecond)
	mu.Lock()
	require.Empty(t, seen)
	mu.Unlock()

	bus.Commit(context.Background(), collector)
	d.Teardown(context.Background(), time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a1"}, seen)
}

func TestDiscardedEventsAreNeverDelivered(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)

	var called bool
	servicebus.Subscribe(bus, func(_ context.Context, _ agentPublished, _ *servicebus.Bus) error {
		called = true
		return nil
	})

	collector := servicebus.NewEventCollector()
	collector.Publish(agentPublished{agentID: "a1"})
	bus.Discard(collector)
	d.Teardown(context.Background(), time.Second)

	require.False(t, called)
}

func TestHandlerErrorDiscardsEvents(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	container := servicebus.NewContainer()
	svc := servicebus.NewService("test", container, bus, d)

	var delivered bool
	servicebus.Subscribe(bus, func(_ context.Context, _ agentPublished, _ *servicebus.Bus) error {
		delivered = true
		return nil
	})

	type failingRequest struct{}
	servicebus.RegisterHandler(svc, func(_ context.Context, _ failingRequest, deps *servicebus.Container) (struct{}, error) {
		collector, err := servicebus.Resolve[*servicebus.EventCollector](deps)
		require.NoError(t, err)
		collector.Publish(agentPublished{agentID: "should-not-deliver"})
		return struct{}{}, errors.New("handler failed")
	})

	_, err := svc.Handle(context.Background(), failingRequest{})
	require.Error(t, err)
	d.Teardown(context.Background(), time.Second)
	require.False(t, delivered)
}

func TestHandlerSuccessCommitsEventsInOrder(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	container := servicebus.NewContainer()
	svc := servicebus.NewService("test", container, bus, d)

	var mu sync.Mutex
	var seen []string
	servicebus.Subscribe(bus, func(_ context.Context, e agentPublished, _ *servicebus.Bus) error {
		mu.Lock()
		seen = append(seen, e.agentID)
		mu.Unlock()
		return nil
	})

	type okRequest struct{}
	servicebus.RegisterHandler(svc, func(_ context.Context, _ okRequest, deps *servicebus.Container) (struct{}, error) {
		collector, err := servicebus.Resolve[*servicebus.EventCollector](deps)
		require.NoError(t, err)
		collector.Publish(agentPublished{agentID: "a1"})
		collector.Publish(agentPublished{agentID: "a2"})
		return struct{}{}, nil
	})

	_, err := svc.Handle(context.Background(), okRequest{})
	require.NoError(t, err)
	d.Teardown(context.Background(), time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a1", "a2"}, seen)
}

func TestNoHandlerRegistered(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	container := servicebus.NewContainer()
	svc := servicebus.NewService("test", container, bus, d)

	type unregistered struct{}
	_, err := svc.Handle(context.Background(), unregistered{})
	require.Error(t, err)
	var notRegistered *servicebus.ErrNoHandlerRegistered
	require.ErrorAs(t, err, &notRegistered)
}
