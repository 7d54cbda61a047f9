// Package classify talks to the remote object-detection service and
// turns its answers into confidence-gated decisions. The model itself
// is a black box reachable over HTTP: image in, label + confidence out.
package classify

import "context"

// Result is the classifier's answer for one frame.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // in [0,1]
	LatencyMs  int64   `json:"latency_ms"`
}

// Provider is the remote classifier capability.
// Implementations may be slow or unavailable; callers own retry policy.
type Provider interface {
	Classify(ctx context.Context, image []byte) (*Result, error)
}

// Outcome is the terminal decision for one detection cycle.
type Outcome string

const (
	// Confirm: confident detection of a target species. Deterrents fire.
	Confirm Outcome = "confirm"
	// Reject: confident detection of a non-target class (person,
	// vehicle). Deterrents must not fire.
	Reject Outcome = "reject"
	// Inconclusive: low confidence, or the round trip failed.
	Inconclusive Outcome = "inconclusive"
)

// Decision is immutable and terminal per cycle.
type Decision struct {
	Outcome       Outcome `json:"outcome"`
	Label         string  `json:"label,omitempty"`
	Confidence    float64 `json:"confidence"`
	Severity      string  `json:"severity,omitempty"`
	CorrelationID string  `json:"correlation_id"`
}
