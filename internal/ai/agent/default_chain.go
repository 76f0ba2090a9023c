package agent

import (
	"context"

	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/ai/llm"
)

// DefaultChain is the production Chain: FormatAgentInfo's prompt,
// RAGRunnable's retrieved context, and StreamPredictor's streamed,
// citation-gated, tool-call-aware completion.
type DefaultChain struct {
	RAG       *RAGRunnable
	Predictor *StreamPredictor
}

// NewDefaultChain returns a Chain wiring rag and predictor together.
func NewDefaultChain(rag *RAGRunnable, predictor *StreamPredictor) *DefaultChain {
	return &DefaultChain{RAG: rag, Predictor: predictor}
}

func (c *DefaultChain) Run(ctx context.Context, input Input) (<-chan Chunk, error) {
	out := make(chan Chunk)

	go func() {
		defer close(out)

		systemPrompt := FormatAgentInfo(input.AgentInfo)

		onStep := func(step catalogmodel.Step) {
			out <- Chunk{Kind: ChunkStep, Step: step}
		}
		contextText, docs, err := c.RAG.Run(ctx, onStep, input.Message, input.AgentInfo.DataSources)
		if err != nil {
			out <- Chunk{Kind: ChunkText, Text: "retrieval failed: " + err.Error()}
			return
		}

		messages := make([]llm.Message, 0, len(input.ChatHistory)+1)
		for _, h := range input.ChatHistory {
			role := "user"
			if h.IsAIMessage {
				role = "assistant"
			}
			messages = append(messages, llm.Message{Role: role, Content: h.Content})
		}
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: "Relevant information:\n" + contextText + "\n\nQuestion: " + input.Message,
		})

		if err := c.Predictor.RunWithSources(ctx, systemPrompt, messages, input.CiteSources, docs, out); err != nil {
			out <- Chunk{Kind: ChunkText, Text: "generation failed: " + err.Error()}
		}
	}()

	return out, nil
}
