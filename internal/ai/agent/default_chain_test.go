package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/ai/agent"
	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/ai/llm"
	"onyx.dev/onyx/internal/ai/retriever"
	"onyx.dev/onyx/internal/ai/tool"
	"onyx.dev/onyx/internal/servicebus"
)

type fakeRetriever struct{ docs []retriever.Document }

func (f fakeRetriever) Retrieve(context.Context, string, []catalogmodel.DataSource) ([]retriever.Document, error) {
	return f.docs, nil
}

// fakeLLM emits a fixed set of deltas then reports the stream done, exactly
// once per call, ignoring the request content.
type fakeLLM struct {
	responses [][]llm.Delta
	call      int
}

func (f *fakeLLM) Stream(ctx context.Context, req llm.Request) (<-chan llm.Delta, <-chan error) {
	deltas := make(chan llm.Delta, 16)
	errs := make(chan error, 1)
	response := f.responses[f.call]
	f.call++
	go func() {
		defer close(deltas)
		defer close(errs)
		for _, d := range response {
			deltas <- d
		}
	}()
	return deltas, errs
}

func drain(t *testing.T, ch <-chan agent.Chunk) []agent.Chunk {
	t.Helper()
	var out []agent.Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestChainStreamsCitedTextFromRetrievedDocuments(t *testing.T) {
	rag := agent.NewRAGRunnable(fakeRetriever{docs: []retriever.Document{
		{Label: "doc-a", Content: "alpha content"},
	}})
	fake := &fakeLLM{responses: [][]llm.Delta{
		{
			{Text: "the answer is "},
			{Text: "here :s[1]"},
			{Done: true},
		},
	}}
	predictor := agent.NewStreamPredictor(fake, tool.NewRegistry(), servicebus.NewDispatcher(2))
	chain := agent.NewDefaultChain(rag, predictor)

	out, err := chain.Run(context.Background(), agent.Input{Message: "what is alpha?", CiteSources: true})
	require.NoError(t, err)

	chunks := drain(t, out)
	var text string
	var sawStep bool
	var sawSource bool
	for _, c := range chunks {
		if c.Kind == agent.ChunkStep {
			sawStep = true
		}
		if c.Kind == agent.ChunkText {
			text += c.Text
			if len(c.Sources) > 0 {
				sawSource = true
				require.Equal(t, "doc-a", c.Sources[0].Label)
			}
		}
	}
	require.True(t, sawStep)
	require.True(t, sawSource)
	require.Equal(t, "the answer is here :s[1]", text)
}

func TestChainRunsToolCallsUpToDepthLimit(t *testing.T) {
	rag := agent.NewRAGRunnable(fakeRetriever{})
	fake := &fakeLLM{responses: [][]llm.Delta{
		{{ToolCalls: []llm.ToolCall{{Name: "echo", Arguments: map[string]any{"x": "1"}}}, Done: true}},
		{{ToolCalls: []llm.ToolCall{{Name: "echo"}}, Done: true}},
		{{ToolCalls: []llm.ToolCall{{Name: "echo"}}, Done: true}},
		{{ToolCalls: []llm.ToolCall{{Name: "echo"}}, Done: true}},
		{{ToolCalls: []llm.ToolCall{{Name: "echo"}}, Done: true}},
	}}
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(echoTool{}))
	predictor := agent.NewStreamPredictor(fake, registry, servicebus.NewDispatcher(2))
	chain := agent.NewDefaultChain(rag, predictor)

	out, err := chain.Run(context.Background(), agent.Input{Message: "run tool"})
	require.NoError(t, err)

	chunks := drain(t, out)
	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	require.Contains(t, last.Text, "depth limit exceeded")
}

type echoTool struct{}

func (echoTool) Name() string           { return "echo" }
func (echoTool) Description() string    { return "echoes input" }
func (echoTool) Schema() map[string]any { return nil }
func (echoTool) Run(context.Context, map[string]any) string {
	return "echoed"
}
