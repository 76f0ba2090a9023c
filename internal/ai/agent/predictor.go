package agent

import (
	"context"
	"fmt"

	"onyx.dev/onyx/internal/ai/citation"
	"onyx.dev/onyx/internal/ai/llm"
	"onyx.dev/onyx/internal/ai/tool"
	chatmodel "onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/servicebus"
)

// StreamPredictor issues the streaming LLM call, gates its output through
// the citation engine when requested, and loops over tool calls up to
// MaxDepth.
type StreamPredictor struct {
	LLM        llm.Client
	Tools      *tool.Registry
	Dispatcher *servicebus.Dispatcher
	MaxDepth   int
}

// NewStreamPredictor returns a StreamPredictor with a default tool-call
// depth of 3.
func NewStreamPredictor(client llm.Client, tools *tool.Registry, dispatcher *servicebus.Dispatcher) *StreamPredictor {
	return &StreamPredictor{LLM: client, Tools: tools, Dispatcher: dispatcher, MaxDepth: 3}
}

// Run drives the LLM streaming + tool-call loop, sending Chunk values on
// out. It returns once the model produces a final response with no
// further tool calls, the depth limit is hit, or ctx is canceled.
func (p *StreamPredictor) Run(ctx context.Context, system string, messages []llm.Message, citeSources bool, out chan<- Chunk) error {
	var rewriter *citation.Rewriter
	return p.loop(ctx, system, messages, citeSources, rewriter, out, 0)
}

// RunWithSources is Run for a request that already has a request-scoped
// raw-number-to-source mapping from the RAG step.
func (p *StreamPredictor) RunWithSources(ctx context.Context, system string, messages []llm.Message, citeSources bool, docs map[int]chatmodel.MessageSource, out chan<- Chunk) error {
	var rewriter *citation.Rewriter
	if citeSources {
		rewriter = citation.NewRewriter(docs)
	}
	return p.loop(ctx, system, messages, citeSources, rewriter, out, 0)
}

func (p *StreamPredictor) loop(ctx context.Context, system string, messages []llm.Message, citeSources bool, rewriter *citation.Rewriter, out chan<- Chunk, depth int) error {
	if depth > p.MaxDepth {
		out <- Chunk{Kind: ChunkText, Text: "\n[tool call depth limit exceeded]"}
		return nil
	}

	tools := make([]llm.ToolSpec, 0)
	if p.Tools != nil {
		for _, t := range p.Tools.All() {
			tools = append(tools, llm.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()})
		}
	}

	deltas, errs := p.LLM.Stream(ctx, llm.Request{System: system, Messages: messages, Tools: tools})

	var toolCalls []llm.ToolCall
	for delta := range deltas {
		if delta.Text != "" {
			text := delta.Text
			var sources []chatmodel.MessageSource
			if citeSources && rewriter != nil {
				before := len(rewriter.Sources())
				text = rewriter.Feed(delta.Text)
				if after := rewriter.Sources(); len(after) > before {
					sources = after[before:]
				}
			}
			select {
			case out <- Chunk{Kind: ChunkText, Text: text, Sources: sources}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if delta.Done {
			toolCalls = delta.ToolCalls
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return err
	}

	if len(toolCalls) == 0 {
		if citeSources && rewriter != nil {
			if trailing := rewriter.Flush(); trailing != "" {
				out <- Chunk{Kind: ChunkText, Text: trailing}
			}
		}
		return nil
	}

	results, err := servicebus.Map(ctx, p.Dispatcher, toolCalls, func(ctx context.Context, call llm.ToolCall) (llm.Message, error) {
		t := p.Tools.Get(call.Name)
		result := ""
		if err := tool.Validate(t, call.Arguments); err != nil {
			result = fmt.Sprintf("rejected: %s", err)
		} else {
			result = t.Run(ctx, call.Arguments)
		}
		return llm.Message{Role: "assistant", Content: fmt.Sprintf("[tool %s result]\n%s", call.Name, result)}, nil
	})
	if err != nil {
		return err
	}

	messages = append(messages, results...)
	return p.loop(ctx, system, messages, citeSources, rewriter, out, depth+1)
}
