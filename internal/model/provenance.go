package model

// Provenance tells where a resolved diagnosis came from. Presentation layers
// can render a badge from it; the pipeline itself keys resolution behavior on
// it instead of encoding tags into display names.
type Provenance string

const (
	// ProvenanceMatched comes straight from the similarity matcher.
	ProvenanceMatched Provenance = "matched"
	// ProvenanceAIInjected replaced a weak retrieval candidate.
	ProvenanceAIInjected Provenance = "ai_injected"
	// ProvenanceAICorrected was inserted over candidates the model rejected.
	ProvenanceAICorrected Provenance = "ai_corrected"
	// ProvenanceAISuggested was synthesized when the matcher found nothing.
	ProvenanceAISuggested Provenance = "ai_suggested"
	// ProvenanceOutOfDomain names a condition absent from the knowledge base.
	ProvenanceOutOfDomain Provenance = "out_of_domain"
)
