package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/triage/store"
)

// fakeEmbedder returns a fixed-dimension vector derived from the text length
// so the index build is deterministic without a real model.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func TestBuildSymptomIndex(t *testing.T) {
	ctx := context.Background()
	vocab := testVocabulary(t)
	vs := store.NewMemoryStore()
	embedder := &fakeEmbedder{}

	err := store.BuildSymptomIndex(ctx, vs, embedder, vocab, "symptom_terms", 2)
	require.NoError(t, err)

	count, err := vs.GetStats(ctx, "symptom_terms")
	require.NoError(t, err)
	assert.EqualValues(t, len(vocab.SearchEntries()), count)

	hits, err := vs.Search(ctx, "symptom_terms", []float32{4, 1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
