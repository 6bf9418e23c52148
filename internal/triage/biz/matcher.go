package biz

import (
	"sort"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/store"
)

// DefaultMatchThreshold is the minimum match percentage (inclusive) for a
// candidate to make the primary list.
const DefaultMatchThreshold = 50.0

// DefaultTopN is the default size of the candidate list.
const DefaultTopN = 5

// MatcherConfig configures the similarity matcher.
type MatcherConfig struct {
	// Threshold is the inclusive minimum match percentage.
	Threshold float64
	// TopN caps the candidate list.
	TopN int
}

// Matcher scores diseases against an extracted symptom set using coverage:
// the fraction of a disease's expected symptoms actually observed.
type Matcher struct {
	kb     *store.KnowledgeBase
	config *MatcherConfig
}

// NewMatcher creates a matcher over the knowledge base.
func NewMatcher(kb *store.KnowledgeBase, config *MatcherConfig) *Matcher {
	if config == nil {
		config = &MatcherConfig{}
	}
	if config.Threshold <= 0 {
		config.Threshold = DefaultMatchThreshold
	}
	if config.TopN <= 0 {
		config.TopN = DefaultTopN
	}
	return &Matcher{kb: kb, config: config}
}

// Match ranks diseases for the species against the symptom set. It returns
// the thresholded top-N list plus the raw count of diseases that matched at
// least one symptom, which informs the empty-result fallback. Output order
// is deterministic: percentage desc, matched count desc, name asc.
func (m *Matcher) Match(species string, symptoms []string) ([]*model.MatchCandidate, int) {
	symptomSet := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		symptomSet[s] = struct{}{}
	}

	rawMatched := 0
	var candidates []*model.MatchCandidate

	for _, d := range m.kb.ForSpecies(species) {
		var matched []string
		for _, expected := range d.Symptoms {
			if _, ok := symptomSet[expected]; ok {
				matched = append(matched, expected)
			}
		}
		if len(matched) == 0 {
			continue
		}
		rawMatched++

		percentage := float64(len(matched)) / float64(len(d.Symptoms)) * 100.0
		if percentage < m.config.Threshold {
			continue
		}

		sort.Strings(matched)
		candidates = append(candidates, &model.MatchCandidate{
			Disease:         d,
			MatchPercentage: percentage,
			MatchedSymptoms: matched,
			BaseUrgency:     d.Urgency,
			Contagious:      d.Contagious,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MatchPercentage != candidates[j].MatchPercentage {
			return candidates[i].MatchPercentage > candidates[j].MatchPercentage
		}
		if len(candidates[i].MatchedSymptoms) != len(candidates[j].MatchedSymptoms) {
			return len(candidates[i].MatchedSymptoms) > len(candidates[j].MatchedSymptoms)
		}
		return candidates[i].Disease.Name < candidates[j].Disease.Name
	})

	if len(candidates) > m.config.TopN {
		candidates = candidates[:m.config.TopN]
	}
	return candidates, rawMatched
}
