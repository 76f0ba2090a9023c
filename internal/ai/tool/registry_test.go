package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/ai/tool"
)

type stubTool struct{ name string }

func (s stubTool) Name() string                  { return s.name }
func (s stubTool) Description() string           { return "stub" }
func (s stubTool) Schema() map[string]any        { return nil }
func (s stubTool) Run(context.Context, map[string]any) string {
	return "ran " + s.name
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "search"}))
	err := r.Register(stubTool{name: "search"})
	require.Error(t, err)
	require.ErrorAs(t, err, &tool.ErrDuplicateTool{})
}

func TestRegistryGetMissingReturnsNotFoundStub(t *testing.T) {
	r := tool.NewRegistry()
	missing := r.Get("ghost")
	out := missing.Run(context.Background(), nil)
	require.Contains(t, out, "ghost")
	require.Contains(t, out, "not registered")
}

func TestRegistryGetReturnsRegisteredTool(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "search"}))
	got := r.Get("search")
	require.Equal(t, "ran search", got.Run(context.Background(), nil))
}
