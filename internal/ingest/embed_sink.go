package ingest

import (
	"context"
	"fmt"

	"onyx.dev/onyx/internal/vectorstore"
)

// EmbeddableRecord is what an EmbeddingStrategy derives from one extracted
// Record: the fields needed to build a vector-store Document.
type EmbeddableRecord struct {
	DocID     string
	Timestamp int64
	Title     string
	URL       string
	Text      string
	Metadata  []string
}

// EmbeddingStrategy derives an EmbeddableRecord from one Record. Different
// streams (mail vs. REST pages) populate doc id/title/text differently;
// the strategy isolates that from the sink's write protocol.
type EmbeddingStrategy interface {
	Derive(record Record) (EmbeddableRecord, error)
}

// EmbedSink implements the embed-sink write protocol (spec §4.3): chunk,
// embed, and upsert into the vector store under the identity's derived
// namespace/groupname/schema.
type EmbedSink struct {
	Store       vectorstore.VectorStore
	Encoder     Encoder
	Chunker     Chunker
	Identity    Identity
	TokenLimit  int
}

// NewEmbedSink returns a ready-to-use EmbedSink.
func NewEmbedSink(store vectorstore.VectorStore, encoder Encoder, chunker Chunker, identity Identity, tokenLimit int) *EmbedSink {
	return &EmbedSink{Store: store, Encoder: encoder, Chunker: chunker, Identity: identity, TokenLimit: tokenLimit}
}

// EnsureTarget implements Sink. The embed sink's schema is predefined by
// the vector store's index configuration; EnsureSchema is still called so
// a store implementation that does need first-use provisioning gets the
// chance.
func (s *EmbedSink) EnsureTarget(ctx context.Context, sc StreamContext) error {
	return s.Store.EnsureSchema(ctx, s.Identity.Schema())
}

// WriteBatch implements Sink.
func (s *EmbedSink) WriteBatch(ctx context.Context, sc StreamContext, batch Batch) error {
	for _, record := range batch.Records {
		derived, err := sc.EmbeddingStrategy.Derive(record)
		if err != nil {
			return fmt.Errorf("embed sink: derive record: %w", err)
		}

		chunks := s.Chunker.Chunk(derived.Text, s.TokenLimit)
		if len(chunks) == 0 {
			continue
		}

		vectors, err := s.Encoder.Embed(ctx, chunks)
		if err != nil {
			return fmt.Errorf("embed sink: embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return &ErrEmbeddingSizeMismatch{Want: len(chunks), Got: len(vectors)}
		}

		embeddings := make(map[int][]float32, len(vectors))
		for i, v := range vectors {
			embeddings[i] = v
		}

		doc := vectorstore.Document{
			ID:         derived.DocID,
			Chunks:     chunks,
			Embeddings: embeddings,
			Metadata:   derived.Metadata,
			Timestamp:  derived.Timestamp,
			Title:      derived.Title,
		}
		if err := s.Store.Upsert(ctx, s.Identity.Namespace(), s.Identity.GroupName(), s.Identity.Schema(), doc); err != nil {
			return fmt.Errorf("embed sink: upsert: %w", err)
		}
	}
	return nil
}
