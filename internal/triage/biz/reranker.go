package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/pkg/triage/namematch"
	"github.com/pawsense/triage/internal/pkg/triage/textutil"
	"github.com/pawsense/triage/internal/triage/metrics"
	"github.com/pawsense/triage/internal/triage/store"
)

const (
	// boostedConfidence is the displayed confidence for candidates the
	// model corrected or reranked.
	boostedConfidence = 0.95
	// suggestedConfidence is the default confidence for a diagnosis
	// synthesized from an empty candidate list.
	suggestedConfidence = 0.5
	// weakConfidence marks a retrieval miss: a fuzzy-matched candidate
	// below it is replaced rather than reranked.
	weakConfidence = 0.50
)

// Disclaimer is attached to every resolved assessment.
const Disclaimer = "This assessment is generated by an automated triage system and does not replace a professional veterinary diagnosis."

const genericSecondaryGuidance = "Monitor closely and consult a veterinarian if symptoms persist or worsen."

// Reranker merges the matcher's candidates with the verification verdict:
// confirming, reranking, replacing or injecting the top diagnosis according
// to the confidence-threshold policy.
type Reranker struct {
	kb *store.KnowledgeBase
}

// NewReranker creates a reranker over the knowledge base.
func NewReranker(kb *store.KnowledgeBase) *Reranker {
	return &Reranker{kb: kb}
}

// Resolve produces the final ranked assessment. The overall urgency is
// always recomputed from the final index-0 diagnosis, and the safety
// interceptor's veto is applied last so no state transition can undo it.
func (r *Reranker) Resolve(candidates []*model.MatchCandidate, verdict *model.VerificationVerdict, safety *SafetyResult) *model.ResolvedAssessment {
	if verdict == nil {
		verdict = model.DefaultVerdict()
	}

	resolved := make([]*model.ResolvedDiagnosis, 0, len(candidates))
	for _, c := range candidates {
		resolved = append(resolved, r.toResolved(c))
	}

	if verdict.Agreement {
		r.enrichPrimary(resolved, verdict)
	} else {
		resolved = r.resolveDisagreement(resolved, verdict)
	}
	r.enrichSecondaries(resolved, verdict)

	assessment := &model.ResolvedAssessment{
		Disclaimer: Disclaimer,
	}
	for _, d := range resolved {
		assessment.Diagnoses = append(assessment.Diagnoses, *d)
	}

	if len(assessment.Diagnoses) > 0 {
		assessment.OverallUrgency = assessment.Diagnoses[0].Urgency
	} else {
		assessment.OverallUrgency = verdict.RiskAssessment
	}
	assessment.Recommendation = r.buildRecommendation(assessment)

	if safety != nil && safety.Active {
		r.applySafetyOverride(assessment, safety)
	}

	return assessment
}

// toResolved converts a match candidate into a resolved diagnosis. The
// description falls back to a template naming the first matched symptom.
func (r *Reranker) toResolved(c *model.MatchCandidate) *model.ResolvedDiagnosis {
	confidence := c.Confidence()

	description := ""
	if len(c.MatchedSymptoms) > 0 {
		description = fmt.Sprintf("Commonly presents with %s in %ss.",
			strings.ToLower(textutil.Humanize(c.MatchedSymptoms[0])),
			strings.ToLower(c.Disease.Species))
	}

	return &model.ResolvedDiagnosis{
		Condition:       c.Disease.Name,
		Provenance:      model.ProvenanceMatched,
		Confidence:      confidence,
		MatchQuality:    model.MatchQualityLabel(confidence),
		MatchedSymptoms: c.MatchedSymptoms,
		Urgency:         c.BaseUrgency,
		Contagious:      c.Contagious,
		Description:     description,
		CareGuidance:    c.Disease.CareGuidance,
	}
}

// enrichPrimary applies verdict-derived guidance to the primary without
// touching names or order (the agreement path is otherwise a pass-through).
func (r *Reranker) enrichPrimary(resolved []*model.ResolvedDiagnosis, verdict *model.VerificationVerdict) {
	if len(resolved) == 0 {
		return
	}
	if verdict.ClinicalSummary != "" {
		resolved[0].CareGuidance = verdict.ClinicalSummary
	}
	if len(verdict.CareAdvice) > 0 {
		resolved[0].CareGuidance = strings.TrimSpace(resolved[0].CareGuidance + " " + strings.Join(verdict.CareAdvice, " "))
	}
}

// resolveDisagreement applies the disagreement state machine.
func (r *Reranker) resolveDisagreement(resolved []*model.ResolvedDiagnosis, verdict *model.VerificationVerdict) []*model.ResolvedDiagnosis {
	alt := verdict.Alternative

	if len(resolved) == 0 {
		// Empty candidate list: synthesize rather than return nothing.
		if alt == nil {
			return resolved
		}
		logger.Infow("synthesizing diagnosis for empty candidate list", "diagnosis", alt.Name)
		return []*model.ResolvedDiagnosis{r.synthesize(alt, verdict, model.ProvenanceAISuggested, suggestedConfidence)}
	}

	if alt == nil {
		// The model disagreed but offered no correction; keep the ranking.
		return resolved
	}

	// When the alternative name fuzzy-matches more than one candidate, the
	// highest-ranked one wins.
	matchIdx := -1
	for i, d := range resolved {
		if namematch.Matches(d.Condition, alt.Name) {
			matchIdx = i
			break
		}
	}

	switch {
	case matchIdx >= 0 && resolved[matchIdx].Confidence < weakConfidence:
		// Retrieval miss: replace the weak candidate with a synthetic top
		// entry carrying the verdict's risk level.
		logger.Infow("replacing weak candidate with model assessment",
			"candidate", resolved[matchIdx].Condition,
			"confidence", resolved[matchIdx].Confidence,
		)
		resolved = append(resolved[:matchIdx], resolved[matchIdx+1:]...)
		injected := r.synthesize(alt, verdict, model.ProvenanceAIInjected, boostedConfidence)
		resolved = append([]*model.ResolvedDiagnosis{injected}, resolved...)

	case matchIdx >= 0:
		// Solid candidate the model also arrived at: promote it, keep its
		// name, overwrite its explanation with the verdict's.
		promoted := resolved[matchIdx]
		resolved = append(resolved[:matchIdx], resolved[matchIdx+1:]...)
		promoted.Confidence = boostedConfidence
		promoted.MatchQuality = model.MatchQualityLabel(boostedConfidence)
		if verdict.Reasoning != "" {
			promoted.Description = verdict.Reasoning
		}
		if guidance := verdictGuidance(verdict); guidance != "" {
			promoted.CareGuidance = guidance
		}
		resolved = append([]*model.ResolvedDiagnosis{promoted}, resolved...)

	case !alt.IsInDatabase:
		// The model named a condition outside the knowledge base.
		logger.Infow("injecting out-of-domain diagnosis", "diagnosis", alt.Name)
		metrics.Get().RecordOODInjection()
		ood := r.synthesize(alt, verdict, model.ProvenanceOutOfDomain, alt.Confidence)
		ood.IsExternal = true
		resolved = append([]*model.ResolvedDiagnosis{ood}, resolved...)

	default:
		corrected := r.synthesize(alt, verdict, model.ProvenanceAICorrected, boostedConfidence)
		resolved = append([]*model.ResolvedDiagnosis{corrected}, resolved...)
	}

	return resolved
}

// synthesize builds a diagnosis entry from the verdict's alternative.
func (r *Reranker) synthesize(alt *model.AlternativeDiagnosis, verdict *model.VerificationVerdict, provenance model.Provenance, confidence float64) *model.ResolvedDiagnosis {
	d := &model.ResolvedDiagnosis{
		Condition:    alt.Name,
		Provenance:   provenance,
		Confidence:   confidence,
		MatchQuality: model.MatchQualityLabel(confidence),
		Urgency:      verdict.RiskAssessment,
		Description:  verdict.Reasoning,
		CareGuidance: verdictGuidance(verdict),
	}

	// A known disease still contributes its reference data even when the
	// matcher missed it.
	if known := r.kb.FindByName(alt.Name); known != nil {
		d.Contagious = known.Contagious
		if d.CareGuidance == "" {
			d.CareGuidance = known.CareGuidance
		}
	}
	return d
}

// enrichSecondaries gives every non-primary entry best-effort guidance from
// the verdict's secondary-advice list, falling back to generic text.
func (r *Reranker) enrichSecondaries(resolved []*model.ResolvedDiagnosis, verdict *model.VerificationVerdict) {
	if len(resolved) < 2 {
		return
	}
	for _, d := range resolved[1:] {
		if advice := lookupSecondaryAdvice(verdict.SecondaryAdvice, d.Condition); advice != "" {
			d.CareGuidance = advice
			continue
		}
		if d.CareGuidance == "" {
			d.CareGuidance = genericSecondaryGuidance
		}
	}
}

func lookupSecondaryAdvice(advice map[string]string, condition string) string {
	for name, text := range advice {
		if namematch.Matches(name, condition) {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

func verdictGuidance(verdict *model.VerificationVerdict) string {
	if len(verdict.CareAdvice) > 0 {
		return strings.Join(verdict.CareAdvice, " ")
	}
	return verdict.ClinicalSummary
}

// buildRecommendation writes the headline recommendation from the final
// ranking and the overall urgency.
func (r *Reranker) buildRecommendation(assessment *model.ResolvedAssessment) string {
	timeline := assessment.OverallUrgency.Timeline()
	if len(assessment.Diagnoses) == 0 {
		return fmt.Sprintf("No conditions in our reference data matched the reported symptoms. Recommended timeline to veterinary care: %s.", timeline)
	}

	top := assessment.Diagnoses[0]
	rec := fmt.Sprintf("Most likely condition: %s (%s). Recommended timeline to veterinary care: %s.",
		top.Condition, top.MatchQuality, timeline)
	if known := r.kb.FindByName(top.Condition); known != nil && known.WhenToSeeVet != "" {
		rec += " " + known.WhenToSeeVet
	}
	return rec
}

// applySafetyOverride forces critical urgency and an explicit emergency
// message naming the triggering symptoms. Runs last; nothing can undo it.
func (r *Reranker) applySafetyOverride(assessment *model.ResolvedAssessment, safety *SafetyResult) {
	metrics.Get().RecordSafetyOverride(len(safety.Triggered))

	assessment.SafetyOverride = true
	assessment.TriggeredRedFlags = safety.Triggered
	assessment.OverallUrgency = model.UrgencyCritical
	if len(assessment.Diagnoses) > 0 {
		assessment.Diagnoses[0].Urgency = model.UrgencyCritical
	}

	names := strings.Join(textutil.HumanizeAll(safety.Triggered), ", ")
	assessment.Recommendation = fmt.Sprintf("EMERGENCY: the reported symptoms include %s, which can indicate a life-threatening condition. Seek veterinary care immediately.", names)
}
