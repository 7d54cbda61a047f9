package classify

import "testing"

func TestGate_Evaluate(t *testing.T) {
	gate := NewGate(0.8, []string{"boar", "cow"})

	tests := []struct {
		name       string
		label      string
		confidence float64
		want       Outcome
	}{
		{"confident target species", "boar", 0.92, Confirm},
		{"target at exact threshold", "cow", 0.8, Confirm},
		{"confident non-target", "person", 0.95, Reject},
		{"confident vehicle", "truck", 0.85, Reject},
		{"low confidence target", "boar", 0.79, Inconclusive},
		{"low confidence non-target", "person", 0.5, Inconclusive},
		{"zero confidence", "boar", 0, Inconclusive},
		{"case insensitive label", "Boar", 0.9, Confirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := gate.Evaluate(&Result{Label: tt.label, Confidence: tt.confidence}, "corr-1")
			if d.Outcome != tt.want {
				t.Errorf("Evaluate(%q, %v) = %v, want %v",
					tt.label, tt.confidence, d.Outcome, tt.want)
			}
			if d.CorrelationID != "corr-1" {
				t.Errorf("correlation id not carried: %q", d.CorrelationID)
			}
		})
	}
}

func TestGate_SeverityOnConfirmOnly(t *testing.T) {
	gate := NewGate(0.8, []string{"elephant", "bird"})

	d := gate.Evaluate(&Result{Label: "elephant", Confidence: 0.9}, "c")
	if d.Severity != SeverityCritical {
		t.Errorf("elephant severity = %q, want %q", d.Severity, SeverityCritical)
	}

	d = gate.Evaluate(&Result{Label: "person", Confidence: 0.9}, "c")
	if d.Severity != "" {
		t.Errorf("reject must carry no severity, got %q", d.Severity)
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"bird", SeverityLow},
		{"dog", SeverityMedium},
		{"cow", SeverityHigh},
		{"elephant", SeverityCritical},
		{"wolverine", SeverityMedium}, // unknown species
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.label); got != tt.want {
			t.Errorf("SeverityFor(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
