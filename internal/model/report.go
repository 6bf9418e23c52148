package model

import "time"

// SOAPReport is the structured clinical note assembled from a resolved
// assessment. Sections are preformatted multi-line text so the report can be
// serialized or rendered directly.
type SOAPReport struct {
	CaseID          string    `json:"case_id"`
	DateGenerated   time.Time `json:"date_generated"`
	PetName         string    `json:"pet_name,omitempty"`
	Subjective      string    `json:"subjective"`
	Objective       string    `json:"objective"`
	Assessment      string    `json:"assessment"`
	Plan            string    `json:"plan"`
	ClinicalSummary string    `json:"clinical_summary"`
}

// TriageResponse is the full outbound payload for one triage request.
type TriageResponse struct {
	Assessment *ResolvedAssessment `json:"assessment"`
	Report     *SOAPReport         `json:"report"`
	Extraction *ExtractionResult   `json:"extraction"`
}
