package servicebus

import (
	"context"
	"fmt"
	"reflect"
)

// RequestHandler processes one request and returns its response. deps is a
// per-call child Container that always has a Dispatcher and an
// EventCollector registered in it, in addition to whatever the Service was
// wired with.
type RequestHandler func(ctx context.Context, request any, deps *Container) (any, error)

// ErrNoHandlerRegistered is returned by Service.Handle when no handler was
// registered for the request's concrete type.
type ErrNoHandlerRegistered struct{ Type reflect.Type }

func (e *ErrNoHandlerRegistered) Error() string {
	return fmt.Sprintf("servicebus: no handler registered for %s", e.Type)
}

// Service is a named collection of request handlers sharing one DI
// container, one event Bus, and one Dispatcher. Construct with NewService,
// register handlers with RegisterHandler, then call Handle per request.
type Service struct {
	Name       string
	Container  *Container
	Bus        *Bus
	Dispatcher *Dispatcher

	handlers map[reflect.Type]RequestHandler
}

// NewService wires a Service around a shared container, bus, and
// dispatcher. Multiple services in the same process should share the same
// Bus and Dispatcher so events fan out across service boundaries.
func NewService(name string, container *Container, bus *Bus, dispatcher *Dispatcher) *Service {
	return &Service{
		Name:       name,
		Container:  container,
		Bus:        bus,
		Dispatcher: dispatcher,
		handlers:   make(map[reflect.Type]RequestHandler),
	}
}

// RegisterHandler binds a typed handler function for requests of type Req.
// There may be exactly one handler per request type; registering a second
// one for the same type panics, since that is a wiring bug caught at
// startup rather than a runtime condition.
func RegisterHandler[Req, Resp any](s *Service, handler func(ctx context.Context, req Req, deps *Container) (Resp, error)) {
	t := reflect.TypeOf((*Req)(nil)).Elem()
	if _, exists := s.handlers[t]; exists {
		panic(fmt.Sprintf("servicebus: duplicate handler registration for %s", t))
	}
	s.handlers[t] = func(ctx context.Context, request any, deps *Container) (any, error) {
		req, ok := request.(Req)
		if !ok {
			return nil, fmt.Errorf("servicebus: request %T does not match registered type %s", request, t)
		}
		return handler(ctx, req, deps)
	}
}

// Handle invokes the handler registered for request's concrete type. It
// builds a per-call child container carrying the Dispatcher and a fresh
// EventCollector, invokes the handler, and — on success — commits the
// collector's buffered events to the Bus; on error it discards them. This
// is the full contract described for handler invocation: resolve
// dependencies, invoke, commit-or-discard events.
func (s *Service) Handle(ctx context.Context, request any) (any, error) {
	t := reflect.TypeOf(request)
	handler, ok := s.handlers[t]
	if !ok {
		return nil, &ErrNoHandlerRegistered{Type: t}
	}

	deps := s.Container.Child()
	RegisterInstance[*Dispatcher](deps, s.Dispatcher)
	collector := NewEventCollector()
	RegisterInstance[*EventCollector](deps, collector)

	resp, err := handler(ctx, request, deps)
	if err != nil {
		s.Bus.Discard(collector)
		return nil, err
	}
	s.Bus.Commit(ctx, collector)
	return resp, nil
}
