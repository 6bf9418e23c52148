package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/pawsense/triage/pkg/component/milvus"
)

// MilvusStore implements VectorStore on a Milvus collection. Used when the
// term index should outlive the process or be shared between replicas.
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore creates a Milvus-backed store.
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// CreateCollection creates the term collection schema.
func (s *MilvusStore) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "code", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "term", DataType: entity.FieldTypeVarChar, MaxLen: 255},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Insert adds term entries to the collection.
func (s *MilvusStore) Insert(ctx context.Context, collection string, entries []*TermEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(entries))
	metadata := map[string][]any{
		"code": make([]any, len(entries)),
		"term": make([]any, len(entries)),
	}

	for i, e := range entries {
		embeddings[i] = e.Embedding
		metadata["code"][i] = e.Code
		metadata["term"][i] = e.Term
	}

	ids, err := s.client.Insert(ctx, collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}

	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = fmt.Sprintf("%d", id)
	}
	return stringIDs, nil
}

// Search returns the topK most similar terms.
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*TermHit, error) {
	results, err := s.client.Search(ctx, collection, embedding, topK, []string{"code", "term"})
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	hits := make([]*TermHit, len(results))
	for i, r := range results {
		hit := &TermHit{Score: float64(r.Score)}
		if code, ok := r.Metadata["code"].(string); ok {
			hit.Code = code
		}
		if term, ok := r.Metadata["term"].(string); ok {
			hit.Term = term
		}
		hits[i] = hit
	}
	return hits, nil
}

// GetStats returns the number of indexed terms.
func (s *MilvusStore) GetStats(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
