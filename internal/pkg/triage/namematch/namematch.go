// Package namematch is the single place disease names are compared. Every
// site that matches a model-supplied name against the knowledge base or a
// candidate list goes through Normalize and Matches so the tolerance rules
// stay identical everywhere.
package namematch

import (
	"strings"
	"unicode"
)

// annotation prefixes a model sometimes glues onto a disease name, compared
// after punctuation and marker glyphs have been stripped.
var prefixes = []string{
	"ai assessment ",
	"ai corrected ",
	"ai suggested ",
}

// Normalize lowercases a disease name, drops punctuation and marker glyphs,
// collapses whitespace and strips annotation prefixes.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var sb strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	s = strings.TrimSpace(sb.String())

	for changed := true; changed; {
		changed = false
		for _, p := range prefixes {
			if strings.HasPrefix(s, p) {
				s = strings.TrimSpace(s[len(p):])
				changed = true
			}
		}
	}

	return s
}

// Matches reports whether two disease names refer to the same condition:
// equal after normalization, or one normalized name contained in the other.
// Empty names never match.
func Matches(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}
