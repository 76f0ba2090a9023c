package servicebus_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/servicebus"
)

type greeter interface{ Greet() string }

type staticGreeter struct{ name string }

func (g staticGreeter) Greet() string { return "hello " + g.name }

type counterFactory struct{ n int }

func TestResolveInstance(t *testing.T) {
	c := servicebus.NewContainer()
	servicebus.RegisterInstance[greeter](c, staticGreeter{name: "onyx"})

	got, err := servicebus.Resolve[greeter](c)
	require.NoError(t, err)
	require.Equal(t, "hello onyx", got.Greet())
}

func TestResolveSingletonFactoryBuildsOnce(t *testing.T) {
	c := servicebus.NewContainer()
	calls := 0
	servicebus.RegisterFactory[greeter](c, servicebus.ScopeSingleton, func(*servicebus.Container) (greeter, error) {
		calls++
		return staticGreeter{name: "singleton"}, nil
	})

	_, err := servicebus.Resolve[greeter](c)
	require.NoError(t, err)
	_, err = servicebus.Resolve[greeter](c)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestResolveTransientFactoryBuildsEveryTime(t *testing.T) {
	c := servicebus.NewContainer()
	calls := 0
	servicebus.RegisterFactory[greeter](c, servicebus.ScopeTransient, func(*servicebus.Container) (greeter, error) {
		calls++
		return staticGreeter{name: "transient"}, nil
	})

	_, err := servicebus.Resolve[greeter](c)
	require.NoError(t, err)
	_, err = servicebus.Resolve[greeter](c)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestChildFallsBackToParent(t *testing.T) {
	parent := servicebus.NewContainer()
	servicebus.RegisterInstance[greeter](parent, staticGreeter{name: "parent"})
	child := parent.Child()

	got, err := servicebus.Resolve[greeter](child)
	require.NoError(t, err)
	require.Equal(t, "hello parent", got.Greet())
}

func TestResolveMissingIsNotRegistered(t *testing.T) {
	c := servicebus.NewContainer()
	_, err := servicebus.Resolve[greeter](c)
	require.Error(t, err)
	var notRegistered *servicebus.ErrNotRegistered
	require.ErrorAs(t, err, &notRegistered)
}
