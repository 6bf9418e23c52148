package biz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/store"
	"github.com/pawsense/triage/pkg/llm"
)

// fakeChat returns a canned response, or an error, and records prompts.
type fakeChat struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message) (string, error) {
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	return f.response, f.err
}

func (f *fakeChat) Generate(_ context.Context, prompt string, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeChat) Name() string { return "fake-chat" }

var errModelDown = errors.New("model backend unreachable")

var _ llm.ChatProvider = (*fakeChat)(nil)

func fixtureKB() *store.KnowledgeBase {
	return store.NewKnowledgeBase([]*model.Disease{
		{
			Name:         "Parvovirus",
			Species:      "Dog",
			Symptoms:     []string{"vomiting", "lethargy", "diarrhea"},
			Urgency:      model.UrgencyCritical,
			Contagious:   true,
			CareGuidance: "Isolate from other dogs and keep hydrated.",
			WhenToSeeVet: "Go to an emergency clinic immediately.",
		},
		{
			Name:         "Kennel Cough",
			Species:      "Dog",
			Symptoms:     []string{"coughing", "sneezing", "nasal_discharge"},
			Urgency:      model.UrgencyModerate,
			Contagious:   true,
			CareGuidance: "Rest in a warm humid area.",
			WhenToSeeVet: "See a vet if coughing lasts more than a week.",
		},
		{
			Name:         "Gastritis",
			Species:      "Dog",
			Symptoms:     []string{"vomiting", "loss_of_appetite"},
			Urgency:      model.UrgencyModerate,
			Contagious:   false,
			CareGuidance: "Withhold food briefly, then offer a bland diet.",
			WhenToSeeVet: "Visit a vet if vomiting continues beyond a day.",
		},
		{
			Name:         "Hairball",
			Species:      "Cat",
			Symptoms:     []string{"vomiting", "gagging"},
			Urgency:      model.UrgencyLow,
			Contagious:   false,
			CareGuidance: "Brush regularly and consider a hairball diet.",
			WhenToSeeVet: "Visit a vet if vomiting persists for days.",
		},
	})
}

func fixtureVocabulary(t *testing.T) *store.Vocabulary {
	t.Helper()

	vocab, err := store.NewVocabulary(
		map[string]string{
			"throwing up":       "vomiting",
			"nagsusuka":         "vomiting",
			"tired":             "lethargy",
			"loose stool":       "diarrhea",
			"fits":              "seizures",
			"trouble breathing": "difficulty_breathing",
		},
		[]string{
			"vomiting", "lethargy", "diarrhea", "coughing", "sneezing",
			"nasal_discharge", "loss_of_appetite", "gagging", "seizures",
			"tremors", "difficulty_breathing", "fever",
		},
	)
	require.NoError(t, err)
	return vocab
}
