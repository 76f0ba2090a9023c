package vectorstore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// StagingRow is one materialized row written to the columnar staging
// target, keyed by whatever key properties the owning stream declares.
type StagingRow struct {
	Key    bson.M
	Fields bson.M
}

// StagingStore is the columnar per-stream staging target external
// interface (spec §6): one logical table per (slug, stream, datasource),
// primary-ordered by key properties, with idempotent keyed upsert.
type StagingStore interface {
	// EnsureTable idempotently creates table; CREATE IF NOT EXISTS unless
	// rewrite is set, in which case it drops and recreates.
	EnsureTable(ctx context.Context, table string, rewrite bool) error
	// WriteRows upserts rows into table, keyed by each row's Key.
	WriteRows(ctx context.Context, table string, rows []StagingRow) error
}

// MongoStagingStore backs StagingStore with one MongoDB collection per
// staging table name. No index is created; "repeated insert of the same
// key is idempotent" comes from ReplaceOne-with-upsert filtered on each
// row's Key.
type MongoStagingStore struct {
	db *mongo.Database
}

// NewMongoStagingStore returns a MongoStagingStore.
func NewMongoStagingStore(db *mongo.Database) *MongoStagingStore {
	return &MongoStagingStore{db: db}
}

func (s *MongoStagingStore) EnsureTable(ctx context.Context, table string, rewrite bool) error {
	coll := s.db.Collection(table)
	if rewrite {
		if err := coll.Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStagingStore) WriteRows(ctx context.Context, table string, rows []StagingRow) error {
	coll := s.db.Collection(table)
	opts := options.Replace().SetUpsert(true)
	for _, row := range rows {
		if _, err := coll.ReplaceOne(ctx, row.Key, row.Fields, opts); err != nil {
			return err
		}
	}
	return nil
}
