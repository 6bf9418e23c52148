package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/pkg/triage/namematch"
)

// kbColumns is the expected header of the disease knowledge base file.
var kbColumns = []string{"disease", "species", "symptoms", "urgency", "contagious", "care", "vet"}

// KnowledgeBase is the curated disease reference table, one row per
// (species, disease) pair. Loaded once at startup and never mutated, so it is
// safe for unlimited concurrent readers.
type KnowledgeBase struct {
	diseases []*model.Disease
}

// NewKnowledgeBase wraps an already-built disease list (used by tests).
func NewKnowledgeBase(diseases []*model.Disease) *KnowledgeBase {
	return &KnowledgeBase{diseases: diseases}
}

// LoadKnowledgeBase reads the disease table from a CSV file. Any malformed
// row is a startup error; there is no fallback for broken reference data.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(kbColumns)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("knowledge base has no disease rows")
	}

	for i, col := range records[0] {
		if strings.ToLower(strings.TrimSpace(col)) != kbColumns[i] {
			return nil, fmt.Errorf("knowledge base header mismatch: expected %q at column %d, got %q", kbColumns[i], i, col)
		}
	}

	diseases := make([]*model.Disease, 0, len(records)-1)
	for i, rec := range records[1:] {
		d, err := parseDiseaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("knowledge base row %d: %w", i+2, err)
		}
		diseases = append(diseases, d)
	}

	return &KnowledgeBase{diseases: diseases}, nil
}

func parseDiseaseRow(rec []string) (*model.Disease, error) {
	name := strings.TrimSpace(rec[0])
	species := strings.TrimSpace(rec[1])
	if name == "" || species == "" {
		return nil, fmt.Errorf("disease and species must not be empty")
	}

	var symptoms []string
	for _, s := range strings.Split(rec[2], ";") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("disease %q has no expected symptoms", name)
	}

	urgencyRaw := strings.ToLower(strings.TrimSpace(rec[3]))
	switch urgencyRaw {
	case "low", "moderate", "high", "critical":
	default:
		return nil, fmt.Errorf("disease %q has invalid urgency %q", name, rec[3])
	}

	var contagious bool
	switch strings.ToLower(strings.TrimSpace(rec[4])) {
	case "yes", "true", "1":
		contagious = true
	case "no", "false", "0", "":
		contagious = false
	default:
		return nil, fmt.Errorf("disease %q has invalid contagious flag %q", name, rec[4])
	}

	return &model.Disease{
		Name:         name,
		Species:      species,
		Symptoms:     symptoms,
		Urgency:      model.UrgencyLevel(urgencyRaw),
		Contagious:   contagious,
		CareGuidance: strings.TrimSpace(rec[5]),
		WhenToSeeVet: strings.TrimSpace(rec[6]),
	}, nil
}

// Diseases returns every disease row.
func (kb *KnowledgeBase) Diseases() []*model.Disease {
	return kb.diseases
}

// ForSpecies returns the diseases for a species (case-insensitive). When the
// species has no rows the full cross-species set is returned instead; an
// unknown species is never an error.
func (kb *KnowledgeBase) ForSpecies(species string) []*model.Disease {
	target := strings.ToLower(strings.TrimSpace(species))

	var filtered []*model.Disease
	for _, d := range kb.diseases {
		if strings.ToLower(d.Species) == target {
			filtered = append(filtered, d)
		}
	}
	if len(filtered) == 0 {
		return kb.diseases
	}
	return filtered
}

// FindByName looks a disease up by name using the shared tolerant comparator.
// Returns nil when nothing matches.
func (kb *KnowledgeBase) FindByName(name string) *model.Disease {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	for _, d := range kb.diseases {
		if namematch.Matches(d.Name, name) {
			return d
		}
	}
	return nil
}

// Contains reports whether a disease name exists in the knowledge base.
func (kb *KnowledgeBase) Contains(name string) bool {
	return kb.FindByName(name) != nil
}

// Size returns the number of disease rows.
func (kb *KnowledgeBase) Size() int {
	return len(kb.diseases)
}
