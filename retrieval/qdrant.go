package retrieval

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Point is one indexed chunk keyed by its ordinal.
type Point struct {
	Ordinal uint64
	Text    string
	Vector  []float32
}

// Hit is one semantic search result, ordered by decreasing similarity.
type Hit struct {
	Text  string
	Score float32
}

// VectorIndex stores the current generation of schema chunks. Recreate
// replaces the whole collection; readers racing a recreate may observe an
// empty or partially populated collection.
type VectorIndex interface {
	Recreate(ctx context.Context, dimensions uint64) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit uint64) ([]Hit, error)
}

// QdrantConfig configures the Qdrant-backed index.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// QdrantIndex keeps one logical collection in a Qdrant instance.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantIndex connects to Qdrant over gRPC.
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &QdrantIndex{client: client, collection: cfg.Collection}, nil
}

// Recreate drops the collection if present and creates it anew with cosine
// distance and the given dimensionality.
func (q *QdrantIndex) Recreate(ctx context.Context, dimensions uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("collection lookup: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}
	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert writes points keyed by their ordinal, waiting for durability so a
// following search sees them.
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		items = append(items, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(point.Ordinal),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{"text": point.Text}),
		})
	}
	wait := true
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         items,
	}); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(items), err)
	}
	return nil
}

// Search returns up to limit nearest points by cosine similarity. A point
// with a missing text payload degrades to an empty string.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit uint64) ([]Hit, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		text := ""
		if value, ok := point.Payload["text"]; ok {
			text = value.GetStringValue()
		}
		hits = append(hits, Hit{Text: text, Score: point.Score})
	}
	return hits, nil
}
