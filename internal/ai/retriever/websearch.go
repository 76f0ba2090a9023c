package retriever

import (
	"context"

	catalogmodel "onyx.dev/onyx/internal/catalog/model"
)

// SearchClient is the boundary to an external web-search provider.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SearchResult is one raw result from a SearchClient, before projection to
// Document.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearch retrieves from an external web-search provider, ignoring the
// configured data sources — a web-search-enabled agent answers from the
// open web rather than its configured knowledge stores.
type WebSearch struct {
	Client SearchClient
	Limit  int
}

// NewWebSearch returns a WebSearch retriever over client.
func NewWebSearch(client SearchClient, limit int) *WebSearch {
	if limit <= 0 {
		limit = 5
	}
	return &WebSearch{Client: client, Limit: limit}
}

func (w *WebSearch) Retrieve(ctx context.Context, query string, _ []catalogmodel.DataSource) ([]Document, error) {
	results, err := w.Client.Search(ctx, query, w.Limit)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, Document{
			Label:   r.Title,
			Content: r.Snippet,
			Type:    "web",
			URL:     r.URL,
		})
	}
	return docs, nil
}
