package vectorstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore backs VectorStore with a MongoDB collection per (namespace,
// schema) pair and an Atlas Search `$vectorSearch` aggregation stage for
// the nearest-neighbor half of the hybrid query; the keyword half is
// appended as a `$match` stage on `$text` when q.Ranking is RankingHybrid. This stands
// in for the reference system's Vespa deployment: the wire query is
// different, but the {rank(keyword, ANN[, filter]), hits} shape the spec
// requires is preserved.
type MongoStore struct {
	db            *mongo.Database
	vectorIndex   string
	embeddingPath string
}

// NewMongoStore returns a MongoStore. vectorIndex names the Atlas Search
// vector index configured on each collection's "embeddings" field.
func NewMongoStore(db *mongo.Database, vectorIndex string) *MongoStore {
	return &MongoStore{db: db, vectorIndex: vectorIndex, embeddingPath: "embeddings"}
}

type mongoDoc struct {
	ID         string             `bson:"_id"`
	GroupName  string             `bson:"group_name"`
	Chunks     []string           `bson:"chunks"`
	Embeddings map[string][]float32 `bson:"embeddings"`
	Metadata   []string           `bson:"metadata"`
	Timestamp  int64              `bson:"timestamp"`
	Title      string             `bson:"title"`
}

func collectionName(namespace, schema string) string {
	return fmt.Sprintf("%s__%s", namespace, schema)
}

func (s *MongoStore) Upsert(ctx context.Context, namespace, groupName, schema string, doc Document) error {
	coll := s.db.Collection(collectionName(namespace, schema))
	embeddings := make(map[string][]float32, len(doc.Embeddings))
	for idx, vec := range doc.Embeddings {
		embeddings[fmt.Sprintf("%d", idx)] = vec
	}
	md := mongoDoc{
		ID:         doc.ID,
		GroupName:  groupName,
		Chunks:     doc.Chunks,
		Embeddings: embeddings,
		Metadata:   doc.Metadata,
		Timestamp:  doc.Timestamp,
		Title:      doc.Title,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, md, opts)
	return err
}

func (s *MongoStore) EnsureSchema(ctx context.Context, schema string) error {
	// Atlas Search indexes are provisioned out of band (Terraform/Atlas
	// CLI); a production rollout would call the Atlas Admin API here. The
	// collection itself needs no explicit creation — Mongo creates it
	// lazily on first insert.
	return nil
}

func (s *MongoStore) Search(ctx context.Context, q Query) ([]ScoredDocument, error) {
	coll := s.db.Collection(collectionName(q.Namespace, q.Schema))

	hits := q.Hits
	if hits <= 0 {
		hits = 10
	}

	vectorStage := bson.D{{Key: "$vectorSearch", Value: bson.D{
		{Key: "index", Value: s.vectorIndex},
		{Key: "path", Value: s.embeddingPath},
		{Key: "queryVector", Value: q.Vector},
		{Key: "numCandidates", Value: hits * 10},
		{Key: "limit", Value: hits},
		{Key: "filter", Value: bson.D{{Key: "group_name", Value: q.GroupName}}},
	}}}

	pipeline := mongo.Pipeline{vectorStage}
	if q.Ranking == RankingHybrid && q.Text != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "$text", Value: bson.D{{Key: "$search", Value: q.Text}}},
		}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
	}}})

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []struct {
		mongoDoc `bson:",inline"`
		Score    float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("vector search decode: %w", err)
	}

	results := make([]ScoredDocument, 0, len(raw))
	for _, r := range raw {
		embeddings := make(map[int][]float32, len(r.Embeddings))
		for idxStr, vec := range r.Embeddings {
			var idx int
			fmt.Sscanf(idxStr, "%d", &idx)
			embeddings[idx] = vec
		}
		results = append(results, ScoredDocument{
			Document: Document{
				ID:         r.ID,
				Chunks:     r.Chunks,
				Embeddings: embeddings,
				Metadata:   r.Metadata,
				Timestamp:  r.Timestamp,
				Title:      r.Title,
			},
			Score: r.Score,
		})
	}
	return results, nil
}
