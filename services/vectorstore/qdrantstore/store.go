package qdrantstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/astrodocs/missionqa/services/embedding"
	"github.com/astrodocs/missionqa/services/vectorstore"
)

// Config holds connection details for a Qdrant vector store
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

// Store implements vectorstore.Store against a Qdrant instance. Qdrant's
// query interface takes vectors, so the store embeds the query text through
// the embeddings client first.
type Store struct {
	client     *qdrant.Client
	embedder   *embedding.Client
	collection string
}

// NewStore connects to Qdrant and returns a store bound to one collection
func NewStore(config Config, embedder *embedding.Client) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	return &Store{
		client:     client,
		embedder:   embedder,
		collection: config.Collection,
	}, nil
}

// Query embeds the query text and performs a similarity search
func (s *Store) Query(ctx context.Context, text string, topK int, filter map[string]string) (*vectorstore.QueryResult, error) {
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := uint64(topK)
	points := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(filter))
		for field, value := range filter {
			conditions = append(conditions, qdrant.NewMatch(field, value))
		}
		points.Filter = &qdrant.Filter{Must: conditions}
	}

	hits, err := s.client.Query(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	result := &vectorstore.QueryResult{
		Documents: make([]string, 0, len(hits)),
		Metadatas: make([]map[string]interface{}, 0, len(hits)),
	}
	for _, hit := range hits {
		payload := hit.GetPayload()
		result.Documents = append(result.Documents, stringField(payload, "text"))

		meta := make(map[string]interface{})
		for _, key := range []string{"doc_id", "source", "mission", "category"} {
			if v := stringField(payload, key); v != "" {
				meta[key] = v
			}
		}
		result.Metadatas = append(result.Metadatas, meta)
	}

	return result, nil
}

// Close releases the underlying gRPC connection
func (s *Store) Close() error {
	return s.client.Close()
}

func stringField(payload map[string]*qdrant.Value, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
