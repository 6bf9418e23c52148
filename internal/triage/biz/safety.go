// Package biz implements the triage pipeline: symptom extraction, disease
// matching, the red-flag safety interceptor, AI verification, resolution and
// report assembly.
package biz

import "sort"

// redFlagSet is the fixed set of emergency symptoms. Any of these forces the
// final urgency to critical regardless of every other stage.
var redFlagSet = map[string]struct{}{
	"seizures":             {},
	"tremors":              {},
	"collapse":             {},
	"unconscious":          {},
	"respiratory_distress": {},
	"difficulty_breathing": {},
	"pale_gums":            {},
	"blue_gums":            {},
	"cyanosis":             {},
	"bleeding":             {},
	"blood_in_urine":       {},
	"bloody_diarrhea":      {},
	"paralysis":            {},
	"shock":                {},
	"severe_dehydration":   {},
	"unresponsive":         {},
	"convulsions":          {},
}

// IsRedFlag reports whether a symptom code is in the red-flag set.
func IsRedFlag(code string) bool {
	_, ok := redFlagSet[code]
	return ok
}

// SafetyResult is the interceptor's verdict for one request.
type SafetyResult struct {
	// Active is true when at least one red-flag symptom was present.
	Active bool `json:"active"`
	// Triggered lists the red-flag symptoms, sorted.
	Triggered []string `json:"triggered_symptoms"`
}

// SafetyInterceptor escalates red-flag symptoms. It holds no state; the
// red-flag set is fixed.
type SafetyInterceptor struct{}

// NewSafetyInterceptor creates the interceptor.
func NewSafetyInterceptor() *SafetyInterceptor {
	return &SafetyInterceptor{}
}

// Check scans the symptom set for red flags.
func (s *SafetyInterceptor) Check(symptoms []string) *SafetyResult {
	var triggered []string
	for _, code := range symptoms {
		if IsRedFlag(code) {
			triggered = append(triggered, code)
		}
	}
	sort.Strings(triggered)

	return &SafetyResult{
		Active:    len(triggered) > 0,
		Triggered: triggered,
	}
}
