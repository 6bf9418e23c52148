package biz

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/pkg/triage/textutil"
	"github.com/pawsense/triage/internal/triage/store"
	"github.com/pawsense/triage/pkg/llm"
)

// negationTokens drop an entire sentence from extraction. English plus
// Tagalog, since owner notes arrive in both.
var negationTokens = []string{
	"no", "not", "never", "without", "none",
	"isn't", "doesn't", "don't", "didn't", "hasn't", "wasn't", "won't",
	"hindi", "wala", "walang", "ayaw",
}

// DefaultSemanticThreshold is the minimum cosine similarity for accepting a
// semantic term resolution.
const DefaultSemanticThreshold = 0.82

// ExtractorConfig configures the symptom extractor.
type ExtractorConfig struct {
	// SemanticThreshold is the acceptance threshold for semantic lookups.
	SemanticThreshold float64
	// TermCollection is the vector store collection holding symptom terms.
	TermCollection string
}

// Extractor turns free-text owner notes into canonical symptom codes using
// negation-aware sentence filtering, longest-phrase-first alias matching and
// an AI normalization fallback. The chat and embedding providers are
// optional; without them extraction is regex-only.
type Extractor struct {
	vocab    *store.Vocabulary
	vectors  store.VectorStore
	chat     llm.ChatProvider
	embedder llm.EmbeddingProvider
	config   *ExtractorConfig

	phrasePatterns []phrasePattern
}

type phrasePattern struct {
	re   *regexp.Regexp
	code string
}

// NewExtractor creates an extractor over the given vocabulary. The phrase
// patterns are compiled once, longest phrase first.
func NewExtractor(vocab *store.Vocabulary, vectors store.VectorStore, chat llm.ChatProvider, embedder llm.EmbeddingProvider, config *ExtractorConfig) *Extractor {
	if config == nil {
		config = &ExtractorConfig{}
	}
	if config.SemanticThreshold <= 0 {
		config.SemanticThreshold = DefaultSemanticThreshold
	}
	if config.TermCollection == "" {
		config.TermCollection = "symptom_terms"
	}

	entries := vocab.SearchEntries()
	patterns := make([]phrasePattern, 0, len(entries))
	for _, e := range entries {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(e.Phrase) + `\b`)
		if err != nil {
			logger.Warnw("skipping uncompilable vocabulary phrase", "phrase", e.Phrase, "error", err.Error())
			continue
		}
		patterns = append(patterns, phrasePattern{re: re, code: e.Code})
	}

	return &Extractor{
		vocab:          vocab,
		vectors:        vectors,
		chat:           chat,
		embedder:       embedder,
		config:         config,
		phrasePatterns: patterns,
	}
}

// Extract runs the three extraction steps over the owner's notes and merges
// the result with the caller-supplied checkbox symptoms. It never fails: the
// AI normalization step degrades to regex-only on any error.
func (e *Extractor) Extract(ctx context.Context, userNotes string, existingSymptoms []string, species string) *model.ExtractionResult {
	result := &model.ExtractionResult{
		Provenance: make(map[string]string),
	}

	existing := make(map[string]struct{}, len(existingSymptoms))
	for _, s := range existingSymptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		// Checkbox symptoms come from the UI and should already be
		// canonical; resolve anyway so space variants and aliases work.
		if code, ok := e.vocab.Resolve(s); ok {
			s = code
		}
		existing[s] = struct{}{}
	}

	notes := strings.TrimSpace(userNotes)
	if notes == "" {
		result.CombinedSymptoms = sortedKeys(existing)
		return result
	}

	extracted := make(map[string]struct{})

	// Step 1 and 2: drop negated sentences, then match aliases and codes
	// longest phrase first on what remains.
	filtered := dropNegatedSentences(notes)
	for code, phrase := range e.matchPhrases(filtered) {
		extracted[code] = struct{}{}
		result.Provenance[code] = phrase
	}

	// Step 3: AI normalization fallback over the original notes; the
	// unfiltered text keeps negation nuance for the model to judge.
	if e.chat != nil {
		if err := e.normalizeWithModel(ctx, notes, species, extracted, result); err != nil {
			logger.Warnw("symptom normalization degraded to regex-only",
				"species", species,
				"error", err.Error(),
			)
			result.Degraded = true
		}
	}

	combined := make(map[string]struct{}, len(existing)+len(extracted))
	for s := range existing {
		combined[s] = struct{}{}
	}
	for s := range extracted {
		combined[s] = struct{}{}
	}

	result.ExtractedSymptoms = sortedKeys(extracted)
	result.CombinedSymptoms = sortedKeys(combined)
	for code := range extracted {
		if IsRedFlag(code) {
			result.RedFlagsDetected = append(result.RedFlagsDetected, code)
		}
	}
	sort.Strings(result.RedFlagsDetected)

	return result
}

// dropNegatedSentences removes every sentence containing a negation token.
func dropNegatedSentences(notes string) string {
	var kept []string
	for _, sentence := range textutil.SplitSentences(notes) {
		if containsNegation(sentence) {
			continue
		}
		kept = append(kept, sentence)
	}
	return strings.Join(kept, ". ")
}

func containsNegation(sentence string) bool {
	words := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
	for _, w := range words {
		for _, tok := range negationTokens {
			if w == tok {
				return true
			}
		}
	}
	return false
}

// matchPhrases scans text with every phrase pattern, longest first. Matched
// spans are blanked so a shorter phrase cannot re-match inside a longer one.
func (e *Extractor) matchPhrases(text string) map[string]string {
	working := strings.ToLower(text)
	matches := make(map[string]string)

	for _, p := range e.phrasePatterns {
		if loc := p.re.FindStringIndex(working); loc != nil {
			if _, seen := matches[p.code]; !seen {
				matches[p.code] = working[loc[0]:loc[1]]
			}
			working = p.re.ReplaceAllStringFunc(working, func(m string) string {
				return strings.Repeat(" ", len(m))
			})
		}
	}
	return matches
}

// normalizeWithModel asks the model to translate the notes into medical
// symptom terms, then resolves each term against the vocabulary, falling
// back to semantic lookup, falling back to keeping the raw token.
func (e *Extractor) normalizeWithModel(ctx context.Context, notes, species string, extracted map[string]struct{}, result *model.ExtractionResult) error {
	prompt := fmt.Sprintf(`Translate the following pet owner's notes about their %s into standard veterinary symptom terms.
Owner notes: %q

Return ONLY a comma-separated list of symptom terms in English, or the single word "None" if no symptoms are described. Do not add explanations.`, strings.ToLower(species), notes)

	response, err := e.chat.Generate(ctx, prompt, "You are a veterinary terminology assistant.")
	if err != nil {
		return fmt.Errorf("normalization call failed: %w", err)
	}

	result.AINormalizedText = strings.TrimSpace(response)
	terms := textutil.ParseTermList(response)

	for _, term := range terms {
		if code, ok := e.vocab.Resolve(term); ok {
			if _, seen := extracted[code]; !seen {
				extracted[code] = struct{}{}
				result.Provenance[code] = term
			}
			continue
		}

		if code, ok := e.resolveSemantic(ctx, term); ok {
			if _, seen := extracted[code]; !seen {
				extracted[code] = struct{}{}
				result.Provenance[code] = term
			}
			continue
		}

		// Unresolved terms stay as raw lowercase tokens so verification
		// still sees them.
		if _, seen := extracted[term]; !seen {
			extracted[term] = struct{}{}
			result.Provenance[term] = term
		}
	}
	return nil
}

// resolveSemantic maps an unknown term to the closest indexed symptom term,
// accepting only scores at or above the configured threshold.
func (e *Extractor) resolveSemantic(ctx context.Context, term string) (string, bool) {
	if e.embedder == nil || e.vectors == nil {
		return "", false
	}

	embedding, err := e.embedder.EmbedSingle(ctx, term)
	if err != nil {
		logger.Debugw("semantic term embedding failed", "term", term, "error", err.Error())
		return "", false
	}

	hits, err := e.vectors.Search(ctx, e.config.TermCollection, embedding, 1)
	if err != nil || len(hits) == 0 {
		return "", false
	}
	if hits[0].Score < e.config.SemanticThreshold {
		logger.Debugw("semantic resolution below threshold",
			"term", term,
			"closest", hits[0].Code,
			"score", hits[0].Score,
		)
		return "", false
	}
	return hits[0].Code, true
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
