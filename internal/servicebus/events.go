package servicebus

import (
	"context"
	"reflect"
	"sync"

	"goa.design/clue/log"
)

// EventHandler processes one event instance. Its error is logged by the
// dispatcher and never propagates to the producing handler.
type EventHandler func(ctx context.Context, event any, bus *Bus) error

// EventCollector buffers events published by a single handler invocation.
// It is discarded unread if the producing handler raises, and drained to
// the shared Bus only after the handler returns successfully — this is
// the mechanism that gives the bus its "delivered only after commit"
// guarantee.
type EventCollector struct {
	mu     sync.Mutex
	events []any
}

// NewEventCollector returns an empty collector, scoped to one handler call.
func NewEventCollector() *EventCollector {
	return &EventCollector{}
}

// Publish appends event to the collector. It never blocks and never
// delivers synchronously.
func (c *EventCollector) Publish(event any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// drain removes and returns all buffered events, in publish order.
func (c *EventCollector) drain() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

// Bus is the process-wide event dispatch table: a mapping from event
// concrete type to the list of handlers subscribed to it. Subscriptions are
// only mutated at service-wire time; Commit is safe to call concurrently
// once wiring is complete since each call only reads the table and reads
// from per-producer event slices.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]EventHandler
	d        *Dispatcher
}

// NewBus returns a Bus that schedules its handlers on d.
func NewBus(d *Dispatcher) *Bus {
	return &Bus{handlers: make(map[reflect.Type][]EventHandler), d: d}
}

// Subscribe registers handler for every event of type T. Call only during
// service wiring, before any request is dispatched.
func Subscribe[T any](b *Bus, handler func(ctx context.Context, event T, bus *Bus) error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	wrapped := func(ctx context.Context, event any, bus *Bus) error {
		return handler(ctx, event.(T), bus)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], wrapped)
}

// deliver hands every event in events, in order, to its subscribed
// handlers. The whole batch is scheduled as one task on the dispatcher,
// which runs the handlers one after another in slice order, so events of
// the same producer are handled in publish order; each handler's failure
// is logged and does not stop the handlers after it.
func (b *Bus) deliver(ctx context.Context, events []any) {
	b.d.Schedule(ctx, "event delivery", func(ctx context.Context) error {
		for _, evt := range events {
			t := reflect.TypeOf(evt)
			b.mu.RLock()
			handlers := append([]EventHandler(nil), b.handlers[t]...)
			b.mu.RUnlock()
			for _, h := range handlers {
				if err := h(ctx, evt, b); err != nil {
					log.Printf(ctx, "event handler for %s failed: %v", t, err)
				}
			}
		}
		return nil
	})
}

// Commit drains collector and delivers its events to the bus. Call exactly
// once, only after the producing handler has returned without error.
func (b *Bus) Commit(ctx context.Context, collector *EventCollector) {
	b.deliver(ctx, collector.drain())
}

// Discard drops collector's buffered events without delivering them. Call
// when the producing handler raised.
func (b *Bus) Discard(collector *EventCollector) {
	collector.drain()
}
