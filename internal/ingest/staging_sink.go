package ingest

import (
	"context"
	"fmt"

	"onyx.dev/onyx/internal/vectorstore"
)

// StagingSink implements the staging-sink write protocol (spec §4.3):
// materialize each batch as a typed row set keyed by the stream's key
// properties and upsert into the columnar staging target.
type StagingSink struct {
	Store         vectorstore.StagingStore
	Identity      Identity
	StagingSchema string
	Rewrite       bool
}

// NewStagingSink returns a ready-to-use StagingSink.
func NewStagingSink(store vectorstore.StagingStore, identity Identity, stagingSchema string) *StagingSink {
	return &StagingSink{Store: store, Identity: identity, StagingSchema: stagingSchema}
}

// EnsureTarget implements Sink: issues idempotent DDL, `CREATE IF NOT
// EXISTS` unless Rewrite requests a drop-and-recreate.
func (s *StagingSink) EnsureTarget(ctx context.Context, sc StreamContext) error {
	table := s.Identity.StagingTable(s.StagingSchema, sc.Name)
	return s.Store.EnsureTable(ctx, table, s.Rewrite)
}

// WriteBatch implements Sink.
func (s *StagingSink) WriteBatch(ctx context.Context, sc StreamContext, batch Batch) error {
	table := s.Identity.StagingTable(s.StagingSchema, sc.Name)
	rows := make([]vectorstore.StagingRow, 0, len(batch.Records))
	for _, record := range batch.Records {
		key := make(map[string]any, len(sc.KeyProperties))
		for _, k := range sc.KeyProperties {
			key[k] = record[k]
		}
		fields := make(map[string]any, len(sc.Properties))
		for _, p := range sc.Properties {
			fields[p] = record[p]
		}
		rows = append(rows, vectorstore.StagingRow{Key: key, Fields: fields})
	}
	if err := s.Store.WriteRows(ctx, table, rows); err != nil {
		return fmt.Errorf("staging sink: write rows: %w", err)
	}
	return nil
}
