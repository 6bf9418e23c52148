package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/pawsense/triage/pkg/llm"
)

// indexBatchSize is how many terms each embedding call carries.
const indexBatchSize = 32

// BuildSymptomIndex embeds every vocabulary phrase and loads it into the
// vector store so the extractor's semantic fallback can resolve free-text
// terms against known codes. Embedding batches run on a bounded worker pool;
// the whole build happens once at startup.
func BuildSymptomIndex(ctx context.Context, vs VectorStore, embedder llm.EmbeddingProvider, vocab *Vocabulary, collection string, concurrency int) error {
	entries := vocab.SearchEntries()
	if len(entries) == 0 {
		return fmt.Errorf("vocabulary has no search entries")
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	// Probe one phrase to learn the embedding dimension before creating the
	// collection.
	probe, err := embedder.EmbedSingle(ctx, entries[0].Phrase)
	if err != nil {
		return fmt.Errorf("failed to probe embedding dimension: %w", err)
	}

	if err := vs.CreateCollection(ctx, &CollectionConfig{
		Name:        collection,
		Description: "symptom vocabulary terms",
		Dimension:   len(probe),
	}); err != nil {
		return fmt.Errorf("failed to create term collection: %w", err)
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return fmt.Errorf("failed to create embedding worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		indexed  []*TermEntry
	)

	for start := 0; start < len(entries); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, len(batch))
			for i, e := range batch {
				texts[i] = e.Phrase
			}

			vectors, err := embedder.Embed(ctx, texts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to embed term batch: %w", err)
				}
				mu.Unlock()
				return
			}
			if len(vectors) != len(batch) {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("embedding count mismatch: got %d for %d terms", len(vectors), len(batch))
				}
				mu.Unlock()
				return
			}

			termEntries := make([]*TermEntry, len(batch))
			for i, e := range batch {
				termEntries[i] = &TermEntry{
					Code:      e.Code,
					Term:      e.Phrase,
					Embedding: vectors[i],
				}
			}

			mu.Lock()
			indexed = append(indexed, termEntries...)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			return fmt.Errorf("failed to submit embedding batch: %w", submitErr)
		}
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	if _, err := vs.Insert(ctx, collection, indexed); err != nil {
		return fmt.Errorf("failed to insert term entries: %w", err)
	}

	logger.Infow("symptom term index built",
		"collection", collection,
		"terms", len(indexed),
		"dimension", len(probe),
	)
	return nil
}
