package classify

import "strings"

// Severity levels attached to confirmed detections, for operator
// triage on the dashboard. Roughly: how much damage can this species
// do to a field before someone intervenes.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var severityByLabel = map[string]string{
	"bird":     SeverityLow,
	"rat":      SeverityLow,
	"cat":      SeverityMedium,
	"dog":      SeverityMedium,
	"sheep":    SeverityMedium,
	"horse":    SeverityHigh,
	"cow":      SeverityHigh,
	"bear":     SeverityHigh,
	"zebra":    SeverityHigh,
	"giraffe":  SeverityHigh,
	"boar":     SeverityHigh,
	"elephant": SeverityCritical,
}

// SeverityFor returns the severity grade for a species label.
// Unknown species default to medium.
func SeverityFor(label string) string {
	if s, ok := severityByLabel[strings.ToLower(label)]; ok {
		return s
	}
	return SeverityMedium
}
