package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient streams completions from the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient returns a Client backed by the Anthropic SDK.
func NewAnthropicClient(apiKey string, model anthropic.Model) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) Stream(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	deltas := make(chan Delta)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		messages := make([]anthropic.MessageParam, 0, len(req.Messages))
		for _, m := range req.Messages {
			block := anthropic.NewTextBlock(m.Content)
			if m.Role == "assistant" {
				messages = append(messages, anthropic.NewAssistantMessage(block))
			} else {
				messages = append(messages, anthropic.NewUserMessage(block))
			}
		}

		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        t.Name,
					Description: anthropic.String(t.Description),
					InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Parameters},
				},
			})
		}

		maxTokens := int64(req.MaxTokens)
		if maxTokens <= 0 {
			maxTokens = 4096
		}

		stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: maxTokens,
			System:    []anthropic.TextBlockParam{{Text: req.System}},
			Messages:  messages,
			Tools:     tools,
		})

		var message anthropic.Message
		firstToken := true
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				errs <- err
				return
			}

			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if text := delta.Delta.Text; text != "" {
					select {
					case deltas <- Delta{Text: text, TimeToFirstToken: firstToken}:
						firstToken = false
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errs <- err
			return
		}

		var calls []ToolCall
		for _, block := range message.Content {
			if use, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
				args, _ := use.Input.(map[string]any)
				calls = append(calls, ToolCall{ID: use.ID, Name: use.Name, Arguments: args})
			}
		}
		deltas <- Delta{ToolCalls: calls, Done: true}
	}()

	return deltas, errs
}
