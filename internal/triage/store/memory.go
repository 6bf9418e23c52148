package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pawsense/triage/internal/pkg/triage/textutil"
)

// MemoryStore is an in-memory VectorStore backed by brute-force cosine
// search. It is the default backend so the pipeline runs with no external
// infrastructure, and its ordering is fully deterministic for tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]*TermEntry
	nextID      int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*TermEntry),
	}
}

// CreateCollection registers the collection name. Dimension is not enforced;
// mismatched vectors simply score 0.
func (s *MemoryStore) CreateCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[config.Name]; !ok {
		s.collections[config.Name] = nil
	}
	return nil
}

// Insert appends term entries to the collection.
func (s *MemoryStore) Insert(_ context.Context, collection string, entries []*TermEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		s.nextID++
		ids[i] = fmt.Sprintf("%d", s.nextID)
		s.collections[collection] = append(s.collections[collection], e)
	}
	return ids, nil
}

// Search scores every entry against the query and returns the topK best.
// Ties are broken by code, then term, so results are reproducible.
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int) ([]*TermHit, error) {
	s.mu.RLock()
	entries, ok := s.collections[collection]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	hits := make([]*TermHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, &TermHit{
			Code:  e.Code,
			Term:  e.Term,
			Score: textutil.CosineSimilarity(embedding, e.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Code != hits[j].Code {
			return hits[i].Code < hits[j].Code
		}
		return hits[i].Term < hits[j].Term
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// GetStats returns the number of entries in the collection.
func (s *MemoryStore) GetStats(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	return int64(len(entries)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
