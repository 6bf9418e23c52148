package model

// Disease is one knowledge-base row for a (species, disease) pair. Loaded
// once at startup and never mutated.
type Disease struct {
	Name         string       `json:"name"`
	Species      string       `json:"species"`
	Symptoms     []string     `json:"symptoms"`
	Urgency      UrgencyLevel `json:"urgency"`
	Contagious   bool         `json:"contagious"`
	CareGuidance string       `json:"care_guidance"`
	WhenToSeeVet string       `json:"when_to_see_vet"`
}

// MatchCandidate is one scored disease from the similarity matcher.
type MatchCandidate struct {
	Disease         *Disease     `json:"disease"`
	MatchPercentage float64      `json:"match_percentage"`
	MatchedSymptoms []string     `json:"matched_symptoms"`
	BaseUrgency     UrgencyLevel `json:"base_urgency"`
	Contagious      bool         `json:"contagious"`
}

// Confidence expresses the match percentage on the [0,1] scale the reranker
// thresholds use.
func (c *MatchCandidate) Confidence() float64 {
	return c.MatchPercentage / 100.0
}

// AlternativeDiagnosis is the verdict's proposed correction, if any.
type AlternativeDiagnosis struct {
	Name string `json:"name"`
	// IsInDatabase is overwritten with ground truth against the real
	// knowledge base before the verdict leaves the verification layer.
	IsInDatabase bool    `json:"is_in_database"`
	Confidence   float64 `json:"confidence"`
}

// VerificationVerdict is the AI second opinion, coerced into a strict shape
// at the parsing boundary.
type VerificationVerdict struct {
	Agreement           bool                  `json:"agreement"`
	Reasoning           string                `json:"reasoning"`
	RiskAssessment      UrgencyLevel          `json:"risk_assessment"`
	MissedRedFlags      []string              `json:"missed_red_flags"`
	Alternative         *AlternativeDiagnosis `json:"alternative_diagnosis,omitempty"`
	ClinicalSummary     string                `json:"clinical_summary"`
	CareAdvice          []string              `json:"care_advice"`
	SecondaryAdvice     map[string]string     `json:"secondary_advice,omitempty"`
	SeverityExplanation string                `json:"severity_explanation"`
	// Degraded marks the default verdict produced when the model call or
	// response parsing failed.
	Degraded bool `json:"degraded,omitempty"`
}

// DefaultVerdict is the documented fallback when verification is unavailable:
// agree with the matcher at moderate risk and let the pipeline complete.
func DefaultVerdict() *VerificationVerdict {
	return &VerificationVerdict{
		Agreement:      true,
		RiskAssessment: UrgencyModerate,
		Degraded:       true,
	}
}

// ResolvedDiagnosis is one entry of the final ranking.
type ResolvedDiagnosis struct {
	Condition       string       `json:"condition"`
	Provenance      Provenance   `json:"provenance"`
	Confidence      float64      `json:"confidence"`
	MatchQuality    string       `json:"match_quality"`
	MatchedSymptoms []string     `json:"matched_symptoms"`
	Urgency         UrgencyLevel `json:"urgency"`
	Contagious      bool         `json:"contagious"`
	Description     string       `json:"description"`
	CareGuidance    string       `json:"care_guidance"`
	// IsExternal marks a condition that does not exist in the knowledge base.
	IsExternal bool `json:"is_external,omitempty"`
}

// MatchQualityLabel maps a [0,1] confidence to the display label used in the
// assessment section.
func MatchQualityLabel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "Strong match"
	case confidence >= 0.5:
		return "Moderate match"
	default:
		return "Possible match"
	}
}

// ResolvedAssessment is the pipeline's final output.
type ResolvedAssessment struct {
	Diagnoses []ResolvedDiagnosis `json:"diagnoses"`
	// OverallUrgency always mirrors the urgency of Diagnoses[0]; it is never
	// stored independently.
	OverallUrgency    UrgencyLevel `json:"overall_urgency"`
	Recommendation    string       `json:"recommendation"`
	Disclaimer        string       `json:"disclaimer"`
	SafetyOverride    bool         `json:"safety_override"`
	TriggeredRedFlags []string     `json:"triggered_red_flags,omitempty"`
}
