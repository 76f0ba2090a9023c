package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/ai/tool"
)

type schemaTool struct{}

func (schemaTool) Name() string        { return "lookup" }
func (schemaTool) Description() string { return "looks something up" }
func (schemaTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}
}
func (schemaTool) Run(context.Context, map[string]any) string { return "ok" }

func TestValidateAcceptsConformingArguments(t *testing.T) {
	require.NoError(t, tool.Validate(schemaTool{}, map[string]any{"query": "hello"}))
}

func TestValidateRejectsMissingRequiredProperty(t *testing.T) {
	require.Error(t, tool.Validate(schemaTool{}, map[string]any{}))
}

func TestValidateRejectsWrongType(t *testing.T) {
	require.Error(t, tool.Validate(schemaTool{}, map[string]any{"query": 42}))
}

func TestValidateSkipsToolsWithNoSchema(t *testing.T) {
	require.NoError(t, tool.Validate(notFoundStub{}, map[string]any{"anything": true}))
}

type notFoundStub struct{}

func (notFoundStub) Name() string                                  { return "none" }
func (notFoundStub) Description() string                           { return "" }
func (notFoundStub) Schema() map[string]any                        { return nil }
func (notFoundStub) Run(context.Context, map[string]any) string { return "" }
