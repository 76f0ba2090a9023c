// Package vectorstore defines the vector-store and staging-store external
// interfaces (spec §6) and backs them with a MongoDB implementation using
// Atlas Search's $vectorSearch aggregation stage in place of the
// reference system's Vespa YQL syntax — the interface only commits callers
// to the hybrid-rank/ANN/optional-filter query *shape*, not to Vespa's
// literal query language.
package vectorstore

import "context"

// Document is one vector-store record: a chunked, embedded unit of
// ingested content.
type Document struct {
	ID         string
	Chunks     []string
	Embeddings map[int][]float32
	Metadata   []string // "key===value" pairs
	Timestamp  int64
	Title      string
}

// Ranking selects the vector store's scoring mode.
type Ranking string

const (
	// RankingSemantic scores purely by nearest-neighbor distance.
	RankingSemantic Ranking = "semantic"
	// RankingHybrid combines keyword rank with nearest-neighbor distance.
	RankingHybrid Ranking = "hybrid"
)

// Query is a hybrid retrieval request against one (namespace, groupname,
// schema) scope.
type Query struct {
	Namespace string
	GroupName string
	Schema    string
	Text      string
	Vector    []float32
	Ranking   Ranking
	Hits      int
	Filter    string // optional metadata filter expression
}

// ScoredDocument pairs a Document with its retrieval score.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// VectorStore is the retrieval + ingest-sink external interface.
type VectorStore interface {
	// Upsert writes or replaces doc under the given scope.
	Upsert(ctx context.Context, namespace, groupName, schema string, doc Document) error
	// Search runs a hybrid query and returns documents ordered by score
	// descending, at most q.Hits results.
	Search(ctx context.Context, q Query) ([]ScoredDocument, error)
	// EnsureSchema idempotently prepares the named schema to receive
	// documents, mirroring the embed sink's "schema is predefined" note —
	// implementations that truly predefine schema out of band may treat
	// this as a no-op.
	EnsureSchema(ctx context.Context, schema string) error
}
