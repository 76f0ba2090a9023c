package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient streams chat completions from the OpenAI API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIClient returns a Client backed by the OpenAI SDK.
func NewOpenAIClient(apiKey string, model openai.ChatModel) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	deltas := make(chan Delta)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
		if req.System != "" {
			messages = append(messages, openai.SystemMessage(req.System))
		}
		for _, m := range req.Messages {
			if m.Role == "assistant" {
				messages = append(messages, openai.AssistantMessage(m.Content))
			} else {
				messages = append(messages, openai.UserMessage(m.Content))
			}
		}

		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  t.Parameters,
				},
			})
		}

		stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
		})

		firstToken := true
		pendingCalls := map[int64]*ToolCall{}
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if text := choice.Delta.Content; text != "" {
				select {
				case deltas <- Delta{Text: text, TimeToFirstToken: firstToken}:
					firstToken = false
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				idx := tc.Index
				call, ok := pendingCalls[idx]
				if !ok {
					call = &ToolCall{ID: tc.ID, Name: tc.Function.Name}
					pendingCalls[idx] = call
				}
				if tc.Function.Arguments != "" {
					var args map[string]any
					if json.Valid([]byte(tc.Function.Arguments)) {
						_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
						call.Arguments = args
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errs <- err
			return
		}

		var calls []ToolCall
		for _, call := range pendingCalls {
			calls = append(calls, *call)
		}
		deltas <- Delta{ToolCalls: calls, Done: true}
	}()

	return deltas, errs
}
