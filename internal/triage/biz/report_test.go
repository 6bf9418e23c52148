package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/biz"
)

func sampleAssessment() *model.ResolvedAssessment {
	return &model.ResolvedAssessment{
		Diagnoses: []model.ResolvedDiagnosis{
			{
				Condition:       "Parvovirus",
				Provenance:      model.ProvenanceMatched,
				Confidence:      0.67,
				MatchQuality:    "Moderate match",
				MatchedSymptoms: []string{"lethargy", "vomiting"},
				Urgency:         model.UrgencyCritical,
				Contagious:      true,
				Description:     "Commonly presents with lethargy in dogs.",
			},
		},
		OverallUrgency: model.UrgencyCritical,
		Recommendation: "Most likely condition: Parvovirus (Moderate match). Recommended timeline to veterinary care: Immediately.",
		Disclaimer:     biz.Disclaimer,
	}
}

func TestAssembleFullReport(t *testing.T) {
	a := biz.NewReportAssembler()

	req := &model.TriageRequest{
		Species:        "Dog",
		PetName:        "Rex",
		ChiefComplaint: "Vomiting since yesterday",
		UserNotes:      "He threw up three times overnight.",
		Duration:       "2 days",
		Progression:    "worsening",
		Severity:       "severe",
		Emergency: &model.EmergencyScreen{
			Respiration: "labored",
			Alertness:   "lethargic but responsive",
		},
	}
	extraction := &model.ExtractionResult{
		CombinedSymptoms: []string{"lethargy", "vomiting"},
	}
	verdict := &model.VerificationVerdict{
		Agreement:       true,
		RiskAssessment:  model.UrgencyCritical,
		ClinicalSummary: "Presentation is consistent with canine parvovirus.",
		CareAdvice:      []string{"Do not offer food until seen by a veterinarian."},
	}

	report := a.Assemble(req, extraction, sampleAssessment(), verdict)

	assert.NotEmpty(t, report.CaseID)
	assert.False(t, report.DateGenerated.IsZero())
	assert.Equal(t, "Rex", report.PetName)

	assert.Contains(t, report.Subjective, "Chief complaint: Vomiting since yesterday")
	assert.Contains(t, report.Subjective, "- Vomiting")
	assert.Contains(t, report.Subjective, "He threw up three times overnight.")
	assert.Contains(t, report.Subjective, "Duration: 2 days")
	assert.Contains(t, report.Subjective, "Progression: worsening")

	assert.Contains(t, report.Objective, "Respiration: labored")
	assert.Contains(t, report.Objective, "Alertness: lethargic but responsive")
	assert.Contains(t, report.Objective, "Perfusion: Not assessed")
	assert.Contains(t, report.Objective, "Lethargy, Vomiting")

	assert.Contains(t, report.Assessment, "1. Parvovirus (Moderate match")
	assert.Contains(t, report.Assessment, "contagious")
	assert.Contains(t, report.Assessment, "Triage classification: Critical")

	assert.Contains(t, report.Plan, "Timeline to veterinary care: Immediately")
	assert.Contains(t, report.Plan, "Do not offer food")
	assert.Contains(t, report.Plan, biz.Disclaimer)

	assert.Equal(t, "Presentation is consistent with canine parvovirus.", report.ClinicalSummary)
}

func TestAssembleWithoutEmergencyScreen(t *testing.T) {
	a := biz.NewReportAssembler()

	req := &model.TriageRequest{Species: "Dog", SymptomsList: []string{"vomiting"}}
	extraction := &model.ExtractionResult{CombinedSymptoms: []string{"vomiting"}}

	report := a.Assemble(req, extraction, sampleAssessment(), nil)

	assert.Contains(t, report.Objective, "Respiration: Not assessed")
	assert.Contains(t, report.Objective, "Alertness: Not assessed")
	assert.Contains(t, report.Objective, "Perfusion: Not assessed")
}

func TestAssembleDegradedVerdictUsesTemplatedPlan(t *testing.T) {
	a := biz.NewReportAssembler()

	req := &model.TriageRequest{
		Species:  "Dog",
		PetName:  "Luna",
		Duration: "3 days",
	}
	extraction := &model.ExtractionResult{CombinedSymptoms: []string{"vomiting"}}

	report := a.Assemble(req, extraction, sampleAssessment(), model.DefaultVerdict())

	assert.Contains(t, report.Plan, "Keep Luna comfortable")
	assert.Contains(t, report.Plan, "3 days")
	// The degraded verdict has no summary; fall back to the recommendation.
	assert.Contains(t, report.ClinicalSummary, "Parvovirus")
}

func TestAssembleRedFlagEscalationNoted(t *testing.T) {
	a := biz.NewReportAssembler()

	assessment := sampleAssessment()
	assessment.SafetyOverride = true
	assessment.TriggeredRedFlags = []string{"seizures"}

	report := a.Assemble(
		&model.TriageRequest{Species: "Dog"},
		&model.ExtractionResult{CombinedSymptoms: []string{"seizures"}},
		assessment,
		model.DefaultVerdict(),
	)

	assert.Contains(t, report.Assessment, "red-flag escalation: Seizures")
}

func TestAssembleCaseIDsUnique(t *testing.T) {
	a := biz.NewReportAssembler()
	req := &model.TriageRequest{Species: "Dog"}
	extraction := &model.ExtractionResult{CombinedSymptoms: []string{"vomiting"}}

	first := a.Assemble(req, extraction, sampleAssessment(), nil)
	second := a.Assemble(req, extraction, sampleAssessment(), nil)

	require.NotEqual(t, first.CaseID, second.CaseID)
}
