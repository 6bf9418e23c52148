package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/triage/store"
)

func testVocabulary(t *testing.T) *store.Vocabulary {
	t.Helper()

	vocab, err := store.NewVocabulary(
		map[string]string{
			"throwing up":          "vomiting",
			"nagsusuka":            "vomiting",
			"tired":                "lethargy",
			"trouble breathing":    "difficulty_breathing",
			"hirap huminga":        "difficulty_breathing",
			"loose stool":          "diarrhea",
			"shaking":              "tremors",
			"fits":                 "seizures",
		},
		[]string{
			"vomiting", "lethargy", "diarrhea", "difficulty_breathing",
			"tremors", "seizures", "coughing", "loss_of_appetite",
		},
	)
	require.NoError(t, err)
	return vocab
}

func TestVocabularyResolve(t *testing.T) {
	vocab := testVocabulary(t)

	tests := []struct {
		name     string
		term     string
		expected string
		found    bool
	}{
		{"english alias", "throwing up", "vomiting", true},
		{"tagalog alias", "nagsusuka", "vomiting", true},
		{"canonical code", "lethargy", "lethargy", true},
		{"space variant of code", "difficulty breathing", "difficulty_breathing", true},
		{"case insensitive", "Throwing Up", "vomiting", true},
		{"unknown term", "purring", "", false},
		{"empty term", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := vocab.Resolve(tt.term)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestVocabularySearchEntriesLongestFirst(t *testing.T) {
	vocab := testVocabulary(t)

	entries := vocab.SearchEntries()
	require.NotEmpty(t, entries)

	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, len(entries[i-1].Phrase), len(entries[i].Phrase),
			"entry %d (%q) should not be longer than entry %d (%q)",
			i, entries[i].Phrase, i-1, entries[i-1].Phrase)
	}

	// The space variant of every code must be present alongside the code.
	phrases := make(map[string]string, len(entries))
	for _, e := range entries {
		phrases[e.Phrase] = e.Code
	}
	assert.Equal(t, "difficulty_breathing", phrases["difficulty breathing"])
	assert.Equal(t, "difficulty_breathing", phrases["difficulty_breathing"])
}

func TestVocabularyRejectsUnknownAliasTarget(t *testing.T) {
	_, err := store.NewVocabulary(
		map[string]string{"throwing up": "vomitting"},
		[]string{"vomiting"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown code")
}

func TestVocabularyRejectsEmptyCodeList(t *testing.T) {
	_, err := store.NewVocabulary(nil, nil)
	require.Error(t, err)
}
