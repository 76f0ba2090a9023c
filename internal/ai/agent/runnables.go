package agent

import (
	"context"
	"fmt"
	"strings"

	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	chatmodel "onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/ai/retriever"
)

// FormatAgentInfo renders an agent's name/description/instructions/
// knowledge into the system-prompt block the predictor prepends to every
// request.
func FormatAgentInfo(info catalogmodel.AgentInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n", info.Name)
	if info.Description != "" {
		fmt.Fprintf(&b, "%s\n", info.Description)
	}
	if info.Instructions != "" {
		fmt.Fprintf(&b, "\nInstructions:\n%s\n", info.Instructions)
	}
	if info.Knowledge != "" {
		fmt.Fprintf(&b, "\nKnowledge:\n%s\n", info.Knowledge)
	}
	for _, p := range info.TrainingPrompts {
		fmt.Fprintf(&b, "\nExample — %s\nSources: %s\n", p.Message, strings.Join(p.Sources, ", "))
	}
	return b.String()
}

// RAGRunnable retrieves documents relevant to the incoming message and
// formats them into the context block the predictor feeds to the LLM,
// assigning each document a raw citation number in first-retrieved order.
type RAGRunnable struct {
	Retriever retriever.Retriever
}

// NewRAGRunnable returns a RAGRunnable over r.
func NewRAGRunnable(r retriever.Retriever) *RAGRunnable {
	return &RAGRunnable{Retriever: r}
}

// Run retrieves and formats context for message, reporting a FetchData
// step via onStep before the (potentially slow) retrieval call. The
// returned map keys each document by its raw citation number — the same
// numbers embedded in the formatted context's `:s[<N>]` tokens — for a
// citation.Rewriter to resolve into stable display numbers later.
func (r *RAGRunnable) Run(ctx context.Context, onStep func(catalogmodel.Step), message string, dataSources []catalogmodel.DataSource) (string, map[int]chatmodel.MessageSource, error) {
	if onStep != nil {
		onStep(catalogmodel.FetchData)
	}

	docs, err := r.Retriever.Retrieve(ctx, message, dataSources)
	if err != nil {
		return "", nil, err
	}

	byRaw := make(map[int]chatmodel.MessageSource, len(docs))
	var blocks []string
	for i, doc := range docs {
		raw := i + 1
		byRaw[raw] = chatmodel.MessageSource{
			Label:   doc.Label,
			Content: doc.Content,
			Type:    doc.Type,
			URL:     doc.URL,
			Page:    doc.Page,
		}
		blocks = append(blocks, fmt.Sprintf(":s[%d]: %s\n```\n%s\n```", raw, doc.Label, doc.Content))
	}
	return strings.Join(blocks, "\n---\n"), byRaw, nil
}
