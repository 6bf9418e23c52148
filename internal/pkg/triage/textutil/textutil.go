// Package textutil provides text helpers shared across the triage pipeline:
// vector similarity, sentence splitting, model-response parsing and display
// formatting.
package textutil

import (
	"math"
	"strings"
	"unicode/utf8"
)

// CosineSimilarity computes the cosine similarity of two vectors.
// The result ranges over [-1, 1]; mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TruncateString truncates s to at most maxLen Unicode characters.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// SplitSentences splits free text into sentences on '.', '!', '?' and ';'.
// Empty fragments are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	for _, r := range text {
		switch r {
		case '.', '!', '?', ';':
			if s := strings.TrimSpace(sb.String()); s != "" {
				sentences = append(sentences, s)
			}
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// ExtractJSONObject pulls the first balanced {...} block out of a model
// response, tolerating markdown code fences and surrounding prose. Returns
// an empty string when no balanced object is found.
func ExtractJSONObject(s string) string {
	s = StripCodeFences(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}

	return ""
}

// StripCodeFences removes markdown ``` fences (with or without a language
// tag) from a model response.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}

	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

// ParseTermList parses a comma-separated term list from a model response.
// The literal answer "None" (any case) and empty input yield no terms.
func ParseTermList(s string) []string {
	s = strings.TrimSpace(StripCodeFences(s))
	if s == "" || strings.EqualFold(s, "none") {
		return nil
	}

	var terms []string
	for _, part := range strings.Split(s, ",") {
		term := strings.ToLower(strings.TrimSpace(part))
		term = strings.Trim(term, `"'.`)
		if term != "" && !strings.EqualFold(term, "none") {
			terms = append(terms, term)
		}
	}
	return terms
}

// Humanize turns a canonical symptom code into display form:
// "labored_breathing" becomes "Labored Breathing".
func Humanize(code string) string {
	words := strings.Split(strings.ReplaceAll(code, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// HumanizeAll applies Humanize to every code.
func HumanizeAll(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = Humanize(c)
	}
	return out
}

// ContainsString checks whether a string slice contains an element.
func ContainsString(slice []string, item string) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
