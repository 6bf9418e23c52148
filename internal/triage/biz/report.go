package biz

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/pkg/triage/textutil"
)

const notAssessed = "Not assessed"

// ReportAssembler converts a resolved assessment into a SOAP-structured
// clinical note. Every section populates even when the verdict is the
// degraded default.
type ReportAssembler struct{}

// NewReportAssembler creates the assembler.
func NewReportAssembler() *ReportAssembler {
	return &ReportAssembler{}
}

// Assemble builds the report. Case IDs are ULIDs so reports sort by creation
// time.
func (a *ReportAssembler) Assemble(req *model.TriageRequest, extraction *model.ExtractionResult, assessment *model.ResolvedAssessment, verdict *model.VerificationVerdict) *model.SOAPReport {
	if verdict == nil {
		verdict = model.DefaultVerdict()
	}

	now := time.Now().UTC()
	report := &model.SOAPReport{
		CaseID:        ulid.Make().String(),
		DateGenerated: now,
		PetName:       req.PetName,
		Subjective:    a.subjective(req, extraction),
		Objective:     a.objective(req, extraction),
		Assessment:    a.assessment(assessment),
		Plan:          a.plan(req, assessment, verdict),
	}

	report.ClinicalSummary = verdict.ClinicalSummary
	if report.ClinicalSummary == "" {
		report.ClinicalSummary = assessment.Recommendation
	}

	return report
}

func (a *ReportAssembler) subjective(req *model.TriageRequest, extraction *model.ExtractionResult) string {
	var sb strings.Builder

	if req.ChiefComplaint != "" {
		fmt.Fprintf(&sb, "Chief complaint: %s\n", req.ChiefComplaint)
	}

	sb.WriteString("Reported symptoms:\n")
	for _, s := range extraction.CombinedSymptoms {
		fmt.Fprintf(&sb, "  - %s\n", textutil.Humanize(s))
	}

	if strings.TrimSpace(req.UserNotes) != "" {
		fmt.Fprintf(&sb, "Owner notes: %s\n", req.UserNotes)
	}
	if req.Duration != "" {
		fmt.Fprintf(&sb, "Duration: %s\n", req.Duration)
	}
	if req.Progression != "" {
		fmt.Fprintf(&sb, "Progression: %s\n", req.Progression)
	}
	if req.Severity != "" {
		fmt.Fprintf(&sb, "Severity: %s\n", req.Severity)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (a *ReportAssembler) objective(req *model.TriageRequest, extraction *model.ExtractionResult) string {
	var sb strings.Builder

	screen := req.Emergency
	if screen == nil {
		screen = &model.EmergencyScreen{}
	}
	fmt.Fprintf(&sb, "Respiration: %s\n", orDefault(screen.Respiration, notAssessed))
	fmt.Fprintf(&sb, "Alertness: %s\n", orDefault(screen.Alertness, notAssessed))
	fmt.Fprintf(&sb, "Perfusion: %s\n", orDefault(screen.Perfusion, notAssessed))

	fmt.Fprintf(&sb, "Observed symptom set: %s\n", strings.Join(textutil.HumanizeAll(extraction.CombinedSymptoms), ", "))
	sb.WriteString("Assessment performed with AI assistance; findings are not a physical examination.")

	return sb.String()
}

func (a *ReportAssembler) assessment(assessment *model.ResolvedAssessment) string {
	var sb strings.Builder

	if len(assessment.Diagnoses) == 0 {
		sb.WriteString("No differential diagnoses above the match threshold.\n")
	} else {
		sb.WriteString("Differential diagnoses:\n")
		for i, d := range assessment.Diagnoses {
			fmt.Fprintf(&sb, "  %d. %s (%s", i+1, d.Condition, d.MatchQuality)
			if len(d.MatchedSymptoms) > 0 {
				fmt.Fprintf(&sb, "; matched: %s", strings.Join(textutil.HumanizeAll(d.MatchedSymptoms), ", "))
			}
			fmt.Fprintf(&sb, "; urgency: %s", d.Urgency.Label())
			if d.Contagious {
				sb.WriteString("; contagious")
			}
			sb.WriteString(")\n")
			if d.Description != "" {
				fmt.Fprintf(&sb, "     %s\n", d.Description)
			}
		}
	}

	fmt.Fprintf(&sb, "Triage classification: %s", assessment.OverallUrgency.Label())
	if assessment.SafetyOverride {
		fmt.Fprintf(&sb, " (red-flag escalation: %s)", strings.Join(textutil.HumanizeAll(assessment.TriggeredRedFlags), ", "))
	}

	return sb.String()
}

func (a *ReportAssembler) plan(req *model.TriageRequest, assessment *model.ResolvedAssessment, verdict *model.VerificationVerdict) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Timeline to veterinary care: %s\n", assessment.OverallUrgency.Timeline())

	advice := verdict.CareAdvice
	if len(advice) == 0 {
		advice = a.defaultAdvice(req)
	}
	sb.WriteString("Care advice:\n")
	for _, item := range advice {
		fmt.Fprintf(&sb, "  - %s\n", item)
	}

	sb.WriteString(assessment.Disclaimer)
	return sb.String()
}

// defaultAdvice is the templated plan used when the verdict supplied none.
func (a *ReportAssembler) defaultAdvice(req *model.TriageRequest) []string {
	pet := orDefault(req.PetName, "your pet")
	advice := []string{
		fmt.Sprintf("Keep %s comfortable, hydrated and under close observation.", pet),
		"Record any new or worsening symptoms to share with your veterinarian.",
	}
	if req.Duration != "" {
		advice = append(advice, fmt.Sprintf("Mention that symptoms have been present for %s when you contact a clinic.", req.Duration))
	}
	return advice
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
