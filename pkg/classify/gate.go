package classify

import "strings"

// Gate applies the confidence-gated actuation policy.
// Pure function of its inputs and configuration; no side effects.
type Gate struct {
	// ConfirmThreshold is the minimum confidence for a confident call
	// either way (confirm or reject).
	ConfirmThreshold float64

	// animals is the set of target species, lowercased.
	animals map[string]struct{}
}

// NewGate creates a gate for the given threshold and target species.
func NewGate(confirmThreshold float64, animalClasses []string) *Gate {
	animals := make(map[string]struct{}, len(animalClasses))
	for _, a := range animalClasses {
		animals[strings.ToLower(a)] = struct{}{}
	}
	return &Gate{
		ConfirmThreshold: confirmThreshold,
		animals:          animals,
	}
}

// Evaluate maps a classifier result onto a decision:
//
//	Confirm      confidence >= threshold and label is a target species
//	Reject       confidence >= threshold and label is anything else
//	Inconclusive confidence below threshold
//
// Deterrents fire only on Confirm; a confident "person" or "truck"
// must never trip the pump.
func (g *Gate) Evaluate(r *Result, correlationID string) Decision {
	d := Decision{
		Outcome:       Inconclusive,
		Label:         r.Label,
		Confidence:    r.Confidence,
		CorrelationID: correlationID,
	}
	if r.Confidence < g.ConfirmThreshold {
		return d
	}

	if _, ok := g.animals[strings.ToLower(r.Label)]; ok {
		d.Outcome = Confirm
		d.Severity = SeverityFor(r.Label)
	} else {
		d.Outcome = Reject
	}
	return d
}
