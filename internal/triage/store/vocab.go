package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SearchEntry is one phrase in the extractor's search dictionary.
type SearchEntry struct {
	// Phrase is the free-text form to look for.
	Phrase string
	// Code is the canonical symptom code the phrase maps to.
	Code string
}

// Vocabulary is the symptom vocabulary and alias store: free-text phrases
// (many-to-one, including non-English aliases) mapped to canonical codes,
// plus the master code list. Loaded once at startup, read-only afterwards.
type Vocabulary struct {
	aliases map[string]string
	codes   []string
	codeSet map[string]struct{}
	entries []SearchEntry
}

// NewVocabulary builds a vocabulary from an alias map and a code list.
// Aliases pointing at unknown codes are rejected so a typo in the data files
// fails loudly at startup instead of silently dropping extractions.
func NewVocabulary(aliases map[string]string, codes []string) (*Vocabulary, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("symptom code list is empty")
	}

	codeSet := make(map[string]struct{}, len(codes))
	cleanCodes := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			return nil, fmt.Errorf("symptom code list contains an empty entry")
		}
		if _, dup := codeSet[c]; dup {
			continue
		}
		codeSet[c] = struct{}{}
		cleanCodes = append(cleanCodes, c)
	}
	sort.Strings(cleanCodes)

	cleanAliases := make(map[string]string, len(aliases))
	for alias, code := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		code = strings.ToLower(strings.TrimSpace(code))
		if alias == "" || code == "" {
			return nil, fmt.Errorf("alias map contains an empty alias or code")
		}
		if _, ok := codeSet[code]; !ok {
			return nil, fmt.Errorf("alias %q maps to unknown code %q", alias, code)
		}
		cleanAliases[alias] = code
	}

	v := &Vocabulary{
		aliases: cleanAliases,
		codes:   cleanCodes,
		codeSet: codeSet,
	}
	v.entries = v.buildSearchEntries()
	return v, nil
}

// LoadVocabulary reads the alias map and code list from their JSON files.
func LoadVocabulary(aliasesPath, codesPath string) (*Vocabulary, error) {
	aliasData, err := os.ReadFile(aliasesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read symptom aliases: %w", err)
	}
	var aliases map[string]string
	if err := json.Unmarshal(aliasData, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse symptom aliases: %w", err)
	}

	codeData, err := os.ReadFile(codesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read symptom codes: %w", err)
	}
	var codes []string
	if err := json.Unmarshal(codeData, &codes); err != nil {
		return nil, fmt.Errorf("failed to parse symptom codes: %w", err)
	}

	return NewVocabulary(aliases, codes)
}

// buildSearchEntries merges aliases and canonical codes into one dictionary.
// Each code also matches its underscore-to-space variant. Longest phrases
// sort first so "difficulty breathing" wins over "breathing".
func (v *Vocabulary) buildSearchEntries() []SearchEntry {
	seen := make(map[string]struct{}, len(v.aliases)+2*len(v.codes))
	entries := make([]SearchEntry, 0, len(v.aliases)+2*len(v.codes))

	add := func(phrase, code string) {
		if _, dup := seen[phrase]; dup {
			return
		}
		seen[phrase] = struct{}{}
		entries = append(entries, SearchEntry{Phrase: phrase, Code: code})
	}

	for alias, code := range v.aliases {
		add(alias, code)
	}
	for _, code := range v.codes {
		add(code, code)
		add(strings.ReplaceAll(code, "_", " "), code)
	}

	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Phrase) != len(entries[j].Phrase) {
			return len(entries[i].Phrase) > len(entries[j].Phrase)
		}
		return entries[i].Phrase < entries[j].Phrase
	})

	return entries
}

// SearchEntries returns the merged dictionary, longest phrase first.
func (v *Vocabulary) SearchEntries() []SearchEntry {
	return v.entries
}

// Codes returns the sorted master code list.
func (v *Vocabulary) Codes() []string {
	return v.codes
}

// HasCode reports whether code is a known canonical code.
func (v *Vocabulary) HasCode(code string) bool {
	_, ok := v.codeSet[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// Resolve maps a free-text term to its canonical code: alias lookup first,
// then the code itself, then the space-to-underscore variant.
func (v *Vocabulary) Resolve(term string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return "", false
	}
	if code, ok := v.aliases[t]; ok {
		return code, true
	}
	if _, ok := v.codeSet[t]; ok {
		return t, true
	}
	underscored := strings.ReplaceAll(t, " ", "_")
	if _, ok := v.codeSet[underscored]; ok {
		return underscored, true
	}
	return "", false
}
