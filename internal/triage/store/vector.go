package store

import (
	"context"
)

// TermEntry is one indexed symptom term: a phrase (canonical code variant or
// alias) embedded for semantic lookup, carrying the canonical code it
// resolves to.
type TermEntry struct {
	// Code is the canonical symptom code the term resolves to.
	Code string
	// Term is the indexed phrase.
	Term string
	// Embedding is the term's embedding vector.
	Embedding []float32
}

// TermHit is one semantic lookup result.
type TermHit struct {
	// Code is the canonical symptom code.
	Code string
	// Term is the phrase that matched.
	Term string
	// Score is the cosine similarity to the query.
	Score float64
}

// CollectionConfig describes a term collection.
type CollectionConfig struct {
	Name        string
	Description string
	Dimension   int
}

// VectorStore is the semantic term index used by the extractor's
// normalization fallback.
type VectorStore interface {
	// CreateCollection creates the collection if needed.
	CreateCollection(ctx context.Context, config *CollectionConfig) error

	// Insert adds term entries to the collection.
	Insert(ctx context.Context, collection string, entries []*TermEntry) ([]string, error)

	// Search returns the topK most similar terms to the query embedding,
	// best score first.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*TermHit, error)

	// GetStats returns the number of indexed terms.
	GetStats(ctx context.Context, collection string) (int64, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}
