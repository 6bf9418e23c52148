package biz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/biz"
)

// offlineService wires the pipeline with no model providers: extraction is
// regex-only and verification returns the default verdict.
func offlineService(t *testing.T) biz.TriageService {
	t.Helper()
	kb := fixtureKB()
	extractor := biz.NewExtractor(fixtureVocabulary(t), nil, nil, nil, nil)
	return biz.NewTriageService(
		extractor,
		biz.NewMatcher(kb, nil),
		biz.NewVerifier(nil, kb, nil),
		biz.NewReranker(kb),
		nil,
	)
}

func TestAssessOfflineRoundTrip(t *testing.T) {
	svc := offlineService(t)

	resp, err := svc.Assess(context.Background(), &model.TriageRequest{
		Species:      "Dog",
		PetName:      "Rex",
		SymptomsList: []string{"vomiting", "lethargy"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Assessment.Diagnoses)
	top := resp.Assessment.Diagnoses[0]
	assert.Equal(t, "Parvovirus", top.Condition)
	assert.Equal(t, model.ProvenanceMatched, top.Provenance)
	assert.Equal(t, []string{"lethargy", "vomiting"}, top.MatchedSymptoms)
	assert.InDelta(t, 0.667, top.Confidence, 0.001)
	assert.Equal(t, model.UrgencyCritical, resp.Assessment.OverallUrgency)
	assert.Equal(t, resp.Assessment.Diagnoses[0].Urgency, resp.Assessment.OverallUrgency)

	// Two of three Parvovirus symptoms match; Gastritis trails at exactly the
	// inclusive threshold.
	require.Len(t, resp.Assessment.Diagnoses, 2)
	assert.Equal(t, "Gastritis", resp.Assessment.Diagnoses[1].Condition)

	require.NotNil(t, resp.Report)
	assert.NotEmpty(t, resp.Report.CaseID)
	assert.Equal(t, "Rex", resp.Report.PetName)
	assert.Contains(t, resp.Report.Assessment, "Parvovirus")
	assert.Contains(t, resp.Report.Plan, "Immediately")

	assert.False(t, resp.Extraction.Degraded, "checkbox-only extraction is not degraded")
}

func TestAssessNotesOnlyWithRedFlag(t *testing.T) {
	svc := offlineService(t)

	resp, err := svc.Assess(context.Background(), &model.TriageRequest{
		Species:   "Dog",
		UserNotes: "He is throwing up and having fits since this morning.",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Extraction.CombinedSymptoms, "vomiting")
	assert.Contains(t, resp.Extraction.CombinedSymptoms, "seizures")
	assert.True(t, resp.Assessment.SafetyOverride)
	assert.Equal(t, model.UrgencyCritical, resp.Assessment.OverallUrgency)
	assert.Contains(t, resp.Assessment.Recommendation, "EMERGENCY")
}

func TestAssessCheckboxRedFlagTriggersOverride(t *testing.T) {
	svc := offlineService(t)

	// Red flags arriving through the checkbox list still reach the
	// interceptor even though the extractor never saw free text.
	resp, err := svc.Assess(context.Background(), &model.TriageRequest{
		Species:      "Dog",
		SymptomsList: []string{"difficulty_breathing"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Assessment.SafetyOverride)
	assert.Equal(t, []string{"difficulty_breathing"}, resp.Assessment.TriggeredRedFlags)
	assert.Equal(t, model.UrgencyCritical, resp.Assessment.OverallUrgency)
}

func TestAssessValidation(t *testing.T) {
	svc := offlineService(t)

	tests := []struct {
		name string
		req  *model.TriageRequest
	}{
		{"nil request", nil},
		{"missing species", &model.TriageRequest{SymptomsList: []string{"vomiting"}}},
		{"nothing to assess", &model.TriageRequest{Species: "Dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Assess(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestAssessNoRecognizableSymptoms(t *testing.T) {
	svc := offlineService(t)

	_, err := svc.Assess(context.Background(), &model.TriageRequest{
		Species:   "Dog",
		UserNotes: "He seems a bit off today.",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symptoms")
}

func TestAssessDeterministic(t *testing.T) {
	svc := offlineService(t)
	req := &model.TriageRequest{
		Species:      "Dog",
		SymptomsList: []string{"vomiting", "lethargy"},
	}

	first, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(first.Assessment.Diagnoses), len(second.Assessment.Diagnoses))
	for i := range first.Assessment.Diagnoses {
		assert.Equal(t, first.Assessment.Diagnoses[i].Condition, second.Assessment.Diagnoses[i].Condition)
		assert.Equal(t, first.Assessment.Diagnoses[i].Confidence, second.Assessment.Diagnoses[i].Confidence)
	}
	assert.Equal(t, first.Assessment.OverallUrgency, second.Assessment.OverallUrgency)
}

func TestExtractStandalone(t *testing.T) {
	svc := offlineService(t)

	result, err := svc.Extract(context.Background(), &model.TriageRequest{
		Species:   "Dog",
		UserNotes: "Nagsusuka siya at tired na tired.",
	})
	require.NoError(t, err)

	assert.Contains(t, result.CombinedSymptoms, "vomiting")
	assert.Contains(t, result.CombinedSymptoms, "lethargy")
}

func TestStatsIncludesCacheSection(t *testing.T) {
	svc := offlineService(t)

	stats := svc.Stats(context.Background())
	assert.Contains(t, stats, "verdict_cache")
	assert.Contains(t, stats, "assessments")
}
