// Package retriever implements the agent chain's document retrieval step:
// a hybrid vector+keyword retriever over the embed store, and a
// web-search retriever, both satisfying the same Retriever contract so
// RAGRunnable never branches on which kind backs a given data source.
package retriever

import (
	"context"

	catalogmodel "onyx.dev/onyx/internal/catalog/model"
)

// Document is one retrieved passage, ready to be assigned a raw citation
// number by RAGRunnable.
type Document struct {
	Label   string
	Content string
	Type    string
	URL     string
	Page    int
	Score   float64
}

// Retriever returns documents relevant to a query, scoped to the data
// sources an agent version has configured.
type Retriever interface {
	Retrieve(ctx context.Context, query string, dataSources []catalogmodel.DataSource) ([]Document, error)
}
