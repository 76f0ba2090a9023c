package retriever

import (
	"context"
	"sort"
	"strings"

	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/ingest"
	"onyx.dev/onyx/internal/vectorstore"
)

// SelfQueryFilterBuilder constructs a metadata filter expression from a
// natural-language query, for data sources that opt into self-query
// filtering. Concrete implementations typically issue a small, separate
// LLM call to extract structured filter fields.
type SelfQueryFilterBuilder interface {
	Build(ctx context.Context, query string, dataSources []catalogmodel.DataSource) (string, error)
}

// Hybrid retrieves over the embed store with both vector similarity and
// keyword rank, scoped to one group name per configured data source.
// SelfQueryEnabled gates an optional metadata filter built from the query
// text — left false by default, since self-query adds an LLM round-trip
// to every retrieval and most agents configure a small, already
// well-scoped set of data sources.
type Hybrid struct {
	Store            vectorstore.VectorStore
	TopK             int
	SelfQueryEnabled bool
	FilterBuilder    SelfQueryFilterBuilder
}

// NewHybrid returns a Hybrid retriever with self-query disabled.
func NewHybrid(store vectorstore.VectorStore, topK int) *Hybrid {
	if topK <= 0 {
		topK = 8
	}
	return &Hybrid{Store: store, TopK: topK}
}

func (h *Hybrid) Retrieve(ctx context.Context, query string, dataSources []catalogmodel.DataSource) ([]Document, error) {
	var filter string
	if h.SelfQueryEnabled && h.FilterBuilder != nil {
		built, err := h.FilterBuilder.Build(ctx, query, dataSources)
		if err == nil {
			filter = built
		}
	}

	var all []vectorstore.ScoredDocument
	for _, ds := range dataSources {
		id := ingest.Identity{NamespaceID: ds.OrganizationID, DatasourceID: ds.ID, Slug: ds.Slug}
		scored, err := h.Store.Search(ctx, vectorstore.Query{
			Namespace: id.Namespace(),
			GroupName: id.GroupName(),
			Schema:    id.Schema(),
			Text:      query,
			Ranking:   vectorstore.RankingHybrid,
			Hits:      h.TopK,
			Filter:    filter,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, scored...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > h.TopK {
		all = all[:h.TopK]
	}

	docs := make([]Document, 0, len(all))
	for _, s := range all {
		docs = append(docs, Document{
			Label:   s.Document.Title,
			Content: strings.Join(s.Document.Chunks, "\n"),
			Type:    "document",
			Score:   s.Score,
		})
	}
	return docs, nil
}
