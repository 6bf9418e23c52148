// Package model defines the shared request, assessment and report types used
// across the triage pipeline.
package model

import "strings"

// UrgencyLevel is the ordinal urgency scale shared by the knowledge base,
// the verification verdict and the resolved assessment.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// ParseUrgency normalizes a free-form urgency string to an UrgencyLevel.
// Unknown values fall back to moderate so a sloppy model response never
// stalls the pipeline.
func ParseUrgency(s string) UrgencyLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "routine":
		return UrgencyLow
	case "moderate", "medium":
		return UrgencyModerate
	case "high":
		return UrgencyHigh
	case "critical", "emergency":
		return UrgencyCritical
	default:
		return UrgencyModerate
	}
}

// Rank returns the ordinal position of the level, higher is more urgent.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyModerate:
		return 1
	default:
		return 0
	}
}

// Timeline returns the care-timeline language for the level.
func (u UrgencyLevel) Timeline() string {
	switch u {
	case UrgencyCritical:
		return "Immediately"
	case UrgencyHigh:
		return "Within 12-24 hours"
	case UrgencyModerate:
		return "Within 24-48 hours"
	default:
		return "Routine appointment"
	}
}

// Label returns the display form of the level.
func (u UrgencyLevel) Label() string {
	if u == "" {
		return "Moderate"
	}
	return strings.ToUpper(string(u[:1])) + string(u[1:])
}
