package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/biz"
)

// candidate builds a matcher result against the fixture knowledge base.
func candidate(t *testing.T, name string, pct float64, matched []string) *model.MatchCandidate {
	t.Helper()
	disease := fixtureKB().FindByName(name)
	require.NotNil(t, disease, "unknown fixture disease %q", name)
	return &model.MatchCandidate{
		Disease:         disease,
		MatchPercentage: pct,
		MatchedSymptoms: matched,
		BaseUrgency:     disease.Urgency,
		Contagious:      disease.Contagious,
	}
}

// requireConsistent asserts the invariant every resolution path must hold:
// the overall urgency mirrors the first diagnosis.
func requireConsistent(t *testing.T, a *model.ResolvedAssessment) {
	t.Helper()
	if len(a.Diagnoses) > 0 {
		require.Equal(t, a.Diagnoses[0].Urgency, a.OverallUrgency)
	}
}

func TestResolveAgreementKeepsRanking(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Parvovirus", 66.67, []string{"lethargy", "vomiting"}),
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:       true,
		RiskAssessment:  model.UrgencyHigh,
		ClinicalSummary: "Symptom pattern fits an acute viral infection.",
		CareAdvice:      []string{"Offer small amounts of water frequently."},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	assert.Equal(t, "Parvovirus", a.Diagnoses[0].Condition)
	assert.Equal(t, "Gastritis", a.Diagnoses[1].Condition)
	assert.Equal(t, model.ProvenanceMatched, a.Diagnoses[0].Provenance)
	assert.Equal(t, model.ProvenanceMatched, a.Diagnoses[1].Provenance)
	assert.Equal(t, model.UrgencyCritical, a.OverallUrgency)
	requireConsistent(t, a)

	// The agreement path enriches guidance but never renames or reorders.
	assert.Contains(t, a.Diagnoses[0].CareGuidance, "acute viral infection")
	assert.Contains(t, a.Diagnoses[0].CareGuidance, "small amounts of water")
	assert.Contains(t, a.Recommendation, "Parvovirus")
	assert.Contains(t, a.Recommendation, "Immediately")
	assert.Contains(t, a.Recommendation, "emergency clinic")
	assert.Equal(t, biz.Disclaimer, a.Disclaimer)
}

func TestResolveNilVerdictUsesDefault(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}

	a := r.Resolve(candidates, nil, nil)

	require.Len(t, a.Diagnoses, 1)
	assert.Equal(t, "Gastritis", a.Diagnoses[0].Condition)
	assert.Equal(t, model.UrgencyModerate, a.OverallUrgency)
	requireConsistent(t, a)
}

func TestResolveEmptyCandidatesSynthesizesSuggestion(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	verdict := &model.VerificationVerdict{
		Agreement:      false,
		RiskAssessment: model.UrgencyHigh,
		Reasoning:      "The combination of symptoms points at gastritis.",
		Alternative:    &model.AlternativeDiagnosis{Name: "Gastritis", IsInDatabase: true, Confidence: 0.8},
	}

	a := r.Resolve(nil, verdict, nil)

	require.Len(t, a.Diagnoses, 1)
	d := a.Diagnoses[0]
	assert.Equal(t, "Gastritis", d.Condition)
	assert.Equal(t, model.ProvenanceAISuggested, d.Provenance)
	assert.Equal(t, 0.5, d.Confidence)
	assert.Equal(t, model.UrgencyHigh, d.Urgency)
	assert.Equal(t, "The combination of symptoms points at gastritis.", d.Description)
	// Reference data still comes from the knowledge base.
	assert.False(t, d.Contagious)
	assert.Equal(t, "Withhold food briefly, then offer a bland diet.", d.CareGuidance)
	requireConsistent(t, a)
}

func TestResolveEmptyCandidatesNoAlternative(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	verdict := &model.VerificationVerdict{Agreement: false, RiskAssessment: model.UrgencyModerate}

	a := r.Resolve(nil, verdict, nil)

	assert.Empty(t, a.Diagnoses)
	assert.Equal(t, model.UrgencyModerate, a.OverallUrgency)
	assert.Contains(t, a.Recommendation, "No conditions")
	assert.Contains(t, a.Recommendation, "24-48 hours")
}

func TestResolveDisagreementWithoutAlternativeKeepsRanking(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Parvovirus", 66.67, []string{"lethargy", "vomiting"}),
	}
	verdict := &model.VerificationVerdict{Agreement: false, RiskAssessment: model.UrgencyHigh}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 1)
	assert.Equal(t, "Parvovirus", a.Diagnoses[0].Condition)
	assert.Equal(t, model.ProvenanceMatched, a.Diagnoses[0].Provenance)
	requireConsistent(t, a)
}

func TestResolveWeakCandidateReplaced(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Parvovirus", 66.67, []string{"lethargy", "vomiting"}),
		candidate(t, "Gastritis", 40.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:      false,
		RiskAssessment: model.UrgencyModerate,
		Reasoning:      "Dietary indiscretion explains the vomiting better.",
		Alternative:    &model.AlternativeDiagnosis{Name: "gastritis", IsInDatabase: true, Confidence: 0.9},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	d := a.Diagnoses[0]
	assert.Equal(t, "gastritis", d.Condition)
	assert.Equal(t, model.ProvenanceAIInjected, d.Provenance)
	assert.Equal(t, 0.95, d.Confidence)
	assert.Equal(t, "Strong match", d.MatchQuality)
	assert.Equal(t, model.UrgencyModerate, d.Urgency)
	// The weak original entry is gone, not demoted.
	assert.Equal(t, "Parvovirus", a.Diagnoses[1].Condition)
	requireConsistent(t, a)
}

func TestResolveSolidCandidatePromoted(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Parvovirus", 66.67, []string{"lethargy", "vomiting"}),
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:      false,
		RiskAssessment: model.UrgencyModerate,
		Reasoning:      "Appetite loss alongside vomiting favors gastritis.",
		CareAdvice:     []string{"Offer a bland diet for 48 hours."},
		Alternative:    &model.AlternativeDiagnosis{Name: "Gastritis", IsInDatabase: true, Confidence: 0.85},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	d := a.Diagnoses[0]
	assert.Equal(t, "Gastritis", d.Condition)
	assert.Equal(t, model.ProvenanceMatched, d.Provenance)
	assert.Equal(t, 0.95, d.Confidence)
	assert.Equal(t, "Appetite loss alongside vomiting favors gastritis.", d.Description)
	assert.Equal(t, "Offer a bland diet for 48 hours.", d.CareGuidance)
	// Promotion keeps the catalog name and urgency of the promoted entry.
	assert.Equal(t, model.UrgencyModerate, d.Urgency)
	assert.Equal(t, "Parvovirus", a.Diagnoses[1].Condition)
	requireConsistent(t, a)
}

func TestResolveOutOfDomainInjection(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:      false,
		RiskAssessment: model.UrgencyCritical,
		Reasoning:      "The notes describe chocolate ingestion two hours ago.",
		Alternative:    &model.AlternativeDiagnosis{Name: "Chocolate Toxicity", IsInDatabase: false, Confidence: 0.9},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	d := a.Diagnoses[0]
	assert.Equal(t, "Chocolate Toxicity", d.Condition)
	assert.Equal(t, model.ProvenanceOutOfDomain, d.Provenance)
	assert.True(t, d.IsExternal)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, model.UrgencyCritical, d.Urgency)
	assert.Equal(t, "Gastritis", a.Diagnoses[1].Condition)
	assert.Equal(t, model.UrgencyCritical, a.OverallUrgency)
	requireConsistent(t, a)
}

func TestResolveKnownAlternativePrepended(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:      false,
		RiskAssessment: model.UrgencyModerate,
		Reasoning:      "The cough pattern fits kennel cough.",
		Alternative:    &model.AlternativeDiagnosis{Name: "Kennel Cough", IsInDatabase: true, Confidence: 0.8},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	d := a.Diagnoses[0]
	assert.Equal(t, "Kennel Cough", d.Condition)
	assert.Equal(t, model.ProvenanceAICorrected, d.Provenance)
	assert.Equal(t, 0.95, d.Confidence)
	assert.True(t, d.Contagious)
	assert.Equal(t, "Gastritis", a.Diagnoses[1].Condition)
	requireConsistent(t, a)
}

func TestResolveSecondaryAdviceLookup(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Parvovirus", 66.67, []string{"lethargy", "vomiting"}),
		candidate(t, "Gastritis", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{
		Agreement:      true,
		RiskAssessment: model.UrgencyHigh,
		SecondaryAdvice: map[string]string{
			"gastritis": "Skip one meal and reintroduce food slowly.",
		},
	}

	a := r.Resolve(candidates, verdict, nil)

	require.Len(t, a.Diagnoses, 2)
	assert.Equal(t, "Skip one meal and reintroduce food slowly.", a.Diagnoses[1].CareGuidance)
}

func TestResolveSafetyOverrideFinalVeto(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	// A low-urgency ranking and a low-risk verdict: nothing in the pipeline
	// wants to escalate except the interceptor.
	candidates := []*model.MatchCandidate{
		candidate(t, "Hairball", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{Agreement: true, RiskAssessment: model.UrgencyLow}
	safety := &biz.SafetyResult{Active: true, Triggered: []string{"difficulty_breathing", "seizures"}}

	a := r.Resolve(candidates, verdict, safety)

	assert.True(t, a.SafetyOverride)
	assert.Equal(t, []string{"difficulty_breathing", "seizures"}, a.TriggeredRedFlags)
	assert.Equal(t, model.UrgencyCritical, a.OverallUrgency)
	assert.Equal(t, model.UrgencyCritical, a.Diagnoses[0].Urgency)
	assert.Contains(t, a.Recommendation, "EMERGENCY")
	assert.Contains(t, a.Recommendation, "Difficulty Breathing")
	assert.Contains(t, a.Recommendation, "Seizures")
	requireConsistent(t, a)
}

func TestResolveInactiveSafetyDoesNotOverride(t *testing.T) {
	r := biz.NewReranker(fixtureKB())
	candidates := []*model.MatchCandidate{
		candidate(t, "Hairball", 50.0, []string{"vomiting"}),
	}
	verdict := &model.VerificationVerdict{Agreement: true, RiskAssessment: model.UrgencyLow}

	a := r.Resolve(candidates, verdict, &biz.SafetyResult{})

	assert.False(t, a.SafetyOverride)
	assert.Equal(t, model.UrgencyLow, a.OverallUrgency)
	requireConsistent(t, a)
}
