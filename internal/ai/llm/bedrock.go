package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockClient streams completions from an Amazon Bedrock model via the
// Converse streaming API, for deployments that keep inference inside a
// customer's AWS account rather than calling a vendor API directly.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient returns a Client backed by a configured Bedrock runtime
// client.
func NewBedrockClient(client *bedrockruntime.Client, modelID string) *BedrockClient {
	return &BedrockClient{client: client, modelID: modelID}
}

func (c *BedrockClient) Stream(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	deltas := make(chan Delta)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		messages := make([]types.Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			role := types.ConversationRoleUser
			if m.Role == "assistant" {
				role = types.ConversationRoleAssistant
			}
			messages = append(messages, types.Message{
				Role:    role,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})
		}

		var system []types.SystemContentBlock
		if req.System != "" {
			system = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
		}

		out, err := c.client.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
			ModelId:  aws.String(c.modelID),
			Messages: messages,
			System:   system,
		})
		if err != nil {
			errs <- err
			return
		}

		firstToken := true
		stream := out.GetStream()
		defer stream.Close()
		for event := range stream.Events() {
			delta, ok := event.(*types.ConverseStreamOutputMemberContentBlockDelta)
			if !ok {
				continue
			}
			textDelta, ok := delta.Value.Delta.(*types.ContentBlockDeltaMemberText)
			if !ok || textDelta.Value == "" {
				continue
			}
			select {
			case deltas <- Delta{Text: textDelta.Value, TimeToFirstToken: firstToken}:
				firstToken = false
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil {
			errs <- err
			return
		}
		deltas <- Delta{Done: true}
	}()

	return deltas, errs
}
