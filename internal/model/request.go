package model

// PetContext carries optional signalment details for the pet.
type PetContext struct {
	Age   string `json:"age,omitempty"`
	Breed string `json:"breed,omitempty"`
	Sex   string `json:"sex,omitempty"`
}

// EmergencyScreen holds the caller's quick at-home observations. Empty fields
// render as "Not assessed" in the report.
type EmergencyScreen struct {
	Respiration string `json:"respiration,omitempty"`
	Alertness   string `json:"alertness,omitempty"`
	Perfusion   string `json:"perfusion,omitempty"`
}

// HistoricalTrend summarizes prior assessments for the same pet. Forwarded
// verbatim into the verification prompt when present.
type HistoricalTrend struct {
	RiskScore     int    `json:"risk_score"`
	TrendAnalysis string `json:"trend_analysis"`
	UrgencyLevel  string `json:"urgency_level"`
}

// TriageRequest is the inbound triage request.
type TriageRequest struct {
	Species      string   `json:"species" binding:"required"`
	SymptomsList []string `json:"symptoms_list"`
	UserNotes    string   `json:"user_notes"`

	PetName        string           `json:"pet_name,omitempty"`
	PetContext     *PetContext      `json:"pet_context,omitempty"`
	ChiefComplaint string           `json:"chief_complaint,omitempty"`
	Duration       string           `json:"duration,omitempty"`
	Progression    string           `json:"progression,omitempty"`
	Severity       string           `json:"severity,omitempty"`
	Emergency      *EmergencyScreen `json:"emergency_screen,omitempty"`
	Trend          *HistoricalTrend `json:"historical_trend,omitempty"`
}

// ExtractionResult is the extractor's per-request output. Symptom slices are
// sorted so downstream stages and tests see a stable order.
type ExtractionResult struct {
	// ExtractedSymptoms is the union of regex and semantic matches from the
	// owner's notes.
	ExtractedSymptoms []string `json:"extracted_symptoms"`
	// CombinedSymptoms is ExtractedSymptoms merged with the caller-supplied
	// checkbox symptoms.
	CombinedSymptoms []string `json:"combined_symptoms"`
	// RedFlagsDetected is the subset of ExtractedSymptoms that are red
	// flags.
	RedFlagsDetected []string `json:"red_flags_detected"`
	// Provenance maps each extracted code to the alias or model term that
	// produced it.
	Provenance map[string]string `json:"provenance,omitempty"`
	// AINormalizedText is the raw normalization response, empty when the
	// fallback never ran or failed.
	AINormalizedText string `json:"ai_normalized_text,omitempty"`
	// Degraded is true when the AI normalization fallback failed and the
	// result is regex-only.
	Degraded bool `json:"degraded,omitempty"`
}
