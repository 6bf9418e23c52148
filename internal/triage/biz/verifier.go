package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/pkg/triage/textutil"
	"github.com/pawsense/triage/internal/triage/metrics"
	"github.com/pawsense/triage/internal/triage/store"
	"github.com/pawsense/triage/pkg/llm"
)

// verifierSystemPrompt frames the model as a second-opinion reviewer.
const verifierSystemPrompt = "You are a veterinary clinical reviewer providing a second opinion on an automated triage result. Respond with a single JSON object and nothing else."

// Verifier sends the symptom set and top candidates to a generative model
// for a structured second opinion. It never returns an error: any failure
// degrades to the default verdict so the pipeline always completes.
type Verifier struct {
	chat  llm.ChatProvider
	kb    *store.KnowledgeBase
	cache *VerdictCache
}

// NewVerifier creates a verifier. A nil chat provider means every call
// returns the default verdict (offline mode).
func NewVerifier(chat llm.ChatProvider, kb *store.KnowledgeBase, cache *VerdictCache) *Verifier {
	if cache == nil {
		cache = NewVerdictCache(nil, nil)
	}
	return &Verifier{chat: chat, kb: kb, cache: cache}
}

// Verify cross-checks the matcher's candidates against the model. The
// returned verdict is always safe to hand to the reranker.
func (v *Verifier) Verify(ctx context.Context, userSymptoms []string, candidates []*model.MatchCandidate, species, userNotes string, trend *model.HistoricalTrend) *model.VerificationVerdict {
	if v.chat == nil {
		return model.DefaultVerdict()
	}

	prompt := v.buildPrompt(userSymptoms, candidates, species, userNotes, trend)

	if cached := v.cache.Get(ctx, prompt); cached != nil {
		metrics.Get().RecordVerdictCache(true)
		return cached
	}
	metrics.Get().RecordVerdictCache(false)

	start := time.Now()
	response, err := v.chat.Generate(ctx, prompt, verifierSystemPrompt)
	metrics.Get().RecordLLMCall(time.Since(start), err)
	if err != nil {
		logger.Warnw("verification call failed, using default verdict",
			"species", species,
			"error", err.Error(),
		)
		return model.DefaultVerdict()
	}

	verdict, err := v.parseVerdict(response)
	if err != nil {
		logger.Warnw("verification response unparseable, using default verdict",
			"error", err.Error(),
			"response", textutil.TruncateString(response, 200),
		)
		return model.DefaultVerdict()
	}

	v.correctDatabaseFlag(verdict)
	v.cache.Set(ctx, prompt, verdict)
	return verdict
}

// buildPrompt assembles the structured verification prompt.
func (v *Verifier) buildPrompt(userSymptoms []string, candidates []*model.MatchCandidate, species, userNotes string, trend *model.HistoricalTrend) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Species: %s\n", species)
	if strings.TrimSpace(userNotes) != "" {
		fmt.Fprintf(&sb, "Owner notes: %q\n", userNotes)
	}
	fmt.Fprintf(&sb, "Reported symptoms: %s\n", strings.Join(userSymptoms, ", "))

	sb.WriteString("\nAutomated triage candidates (ranked):\n")
	if len(candidates) == 0 {
		sb.WriteString("  (none above the match threshold)\n")
	}
	for i, c := range candidates {
		fmt.Fprintf(&sb, "  %d. %s (confidence %.2f, urgency %s, matched symptoms: %s)\n",
			i+1, c.Disease.Name, c.Confidence(), c.BaseUrgency, strings.Join(c.MatchedSymptoms, ", "))
	}

	if trend != nil {
		sb.WriteString("\nHistorical context for this pet:\n")
		fmt.Fprintf(&sb, "  Prior risk score: %d\n", trend.RiskScore)
		if trend.TrendAnalysis != "" {
			fmt.Fprintf(&sb, "  Trend: %s\n", trend.TrendAnalysis)
		}
		if trend.UrgencyLevel != "" {
			fmt.Fprintf(&sb, "  Prior urgency: %s\n", trend.UrgencyLevel)
		}
	}

	sb.WriteString(`
Review the candidates against the reported symptoms. Check in particular:
- toxin exposure or history details in the notes that the candidates ignore
- anatomical consistency (the diagnosis must explain the reported pain or lesion location)
- symptom progression that warrants escalating the risk level
- conditions that mimic these symptoms at different severity

Respond with exactly this JSON object:
{
  "agreement": true or false,
  "reasoning": "...",
  "risk_assessment": "LOW" | "MODERATE" | "HIGH" | "CRITICAL",
  "missed_red_flags": ["..."],
  "alternative_diagnosis": {"name": "...", "is_in_database": true or false, "confidence": 0.0},
  "clinical_summary": "...",
  "care_advice": ["..."],
  "severity_explanation": "..."
}
Set "alternative_diagnosis" to null when you agree with the top candidate.`)

	return sb.String()
}

// rawVerdict is the loosely-typed payload as the model emits it. It is
// coerced into the strict VerificationVerdict immediately on receipt.
type rawVerdict struct {
	Agreement           *bool             `json:"agreement"`
	Reasoning           string            `json:"reasoning"`
	RiskAssessment      string            `json:"risk_assessment"`
	MissedRedFlags      []string          `json:"missed_red_flags"`
	Alternative         *rawAlternative   `json:"alternative_diagnosis"`
	ClinicalSummary     string            `json:"clinical_summary"`
	CareAdvice          []string          `json:"care_advice"`
	SecondaryAdvice     map[string]string `json:"secondary_advice"`
	SeverityExplanation string            `json:"severity_explanation"`
}

type rawAlternative struct {
	Name         string  `json:"name"`
	IsInDatabase bool    `json:"is_in_database"`
	Confidence   float64 `json:"confidence"`
}

// parseVerdict extracts the first JSON object from the response and coerces
// it into the strict verdict shape, inferring agreement when the model left
// it null.
func (v *Verifier) parseVerdict(response string) (*model.VerificationVerdict, error) {
	blob := textutil.ExtractJSONObject(response)
	if blob == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}

	verdict := &model.VerificationVerdict{
		Reasoning:           strings.TrimSpace(raw.Reasoning),
		RiskAssessment:      model.ParseUrgency(raw.RiskAssessment),
		MissedRedFlags:      raw.MissedRedFlags,
		ClinicalSummary:     strings.TrimSpace(raw.ClinicalSummary),
		CareAdvice:          raw.CareAdvice,
		SecondaryAdvice:     raw.SecondaryAdvice,
		SeverityExplanation: strings.TrimSpace(raw.SeverityExplanation),
	}

	if raw.Alternative != nil && strings.TrimSpace(raw.Alternative.Name) != "" {
		confidence := raw.Alternative.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		verdict.Alternative = &model.AlternativeDiagnosis{
			Name:         strings.TrimSpace(raw.Alternative.Name),
			IsInDatabase: raw.Alternative.IsInDatabase,
			Confidence:   confidence,
		}
	}

	switch {
	case raw.Agreement != nil:
		verdict.Agreement = *raw.Agreement
	case verdict.Alternative != nil:
		// A correction implies disagreement.
		verdict.Agreement = false
	default:
		verdict.Agreement = true
	}

	return verdict, nil
}

// correctDatabaseFlag overwrites the model's is_in_database claim with
// ground truth from the real knowledge base. The model's self-report is
// never trusted.
func (v *Verifier) correctDatabaseFlag(verdict *model.VerificationVerdict) {
	if verdict.Alternative == nil {
		return
	}
	actual := v.kb.Contains(verdict.Alternative.Name)
	if actual != verdict.Alternative.IsInDatabase {
		logger.Infow("corrected hallucinated database membership",
			"diagnosis", verdict.Alternative.Name,
			"claimed", verdict.Alternative.IsInDatabase,
			"actual", actual,
		)
	}
	verdict.Alternative.IsInDatabase = actual
}
