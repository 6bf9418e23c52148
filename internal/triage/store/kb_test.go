package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/store"
)

func TestLoadKnowledgeBase(t *testing.T) {
	kb, err := store.LoadKnowledgeBase(filepath.Join("testdata", "diseases.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, kb.Size())

	parvo := kb.FindByName("Parvovirus")
	require.NotNil(t, parvo)
	assert.Equal(t, "Dog", parvo.Species)
	assert.Equal(t, []string{"vomiting", "lethargy", "diarrhea"}, parvo.Symptoms)
	assert.Equal(t, model.UrgencyCritical, parvo.Urgency)
	assert.True(t, parvo.Contagious)
	assert.NotEmpty(t, parvo.CareGuidance)
	assert.NotEmpty(t, parvo.WhenToSeeVet)
}

func TestLoadKnowledgeBaseRejectsBadUrgency(t *testing.T) {
	_, err := store.LoadKnowledgeBase(filepath.Join("testdata", "diseases_bad_urgency.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid urgency")
}

func TestLoadKnowledgeBaseMissingFile(t *testing.T) {
	_, err := store.LoadKnowledgeBase(filepath.Join("testdata", "does_not_exist.csv"))
	require.Error(t, err)
}

func TestForSpecies(t *testing.T) {
	kb, err := store.LoadKnowledgeBase(filepath.Join("testdata", "diseases.csv"))
	require.NoError(t, err)

	t.Run("case insensitive filter", func(t *testing.T) {
		dogs := kb.ForSpecies("dog")
		assert.Len(t, dogs, 2)
		for _, d := range dogs {
			assert.Equal(t, "Dog", d.Species)
		}
	})

	t.Run("unknown species falls back to full set", func(t *testing.T) {
		all := kb.ForSpecies("Rabbit")
		assert.Len(t, all, kb.Size())
	})
}

func TestFindByName(t *testing.T) {
	kb, err := store.LoadKnowledgeBase(filepath.Join("testdata", "diseases.csv"))
	require.NoError(t, err)

	t.Run("case insensitive", func(t *testing.T) {
		assert.NotNil(t, kb.FindByName("kennel cough"))
	})

	t.Run("containment tolerant", func(t *testing.T) {
		assert.NotNil(t, kb.FindByName("Canine Parvovirus"))
	})

	t.Run("annotation prefix stripped", func(t *testing.T) {
		assert.NotNil(t, kb.FindByName("AI Corrected: Parvovirus"))
	})

	t.Run("unknown disease", func(t *testing.T) {
		assert.Nil(t, kb.FindByName("Dragon Pox"))
		assert.False(t, kb.Contains("Dragon Pox"))
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Nil(t, kb.FindByName("  "))
	})
}
