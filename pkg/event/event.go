// Package event defines the structured events emitted by the detection
// pipeline and an in-process bus that fans them out to observers.
package event

import "time"

// Event types published on the bus.
const (
	TypeProximity      = "proximity"
	TypeCaptureStart   = "capture_start"
	TypeCaptureResult  = "capture_result"
	TypeDecision       = "decision"
	TypeActuationStart = "actuation_start"
	TypeActuationEnd   = "actuation_end"
	TypeCycleComplete  = "cycle_complete"
	TypeDroppedTrigger = "dropped_trigger"
	TypeDroppedEvent   = "dropped_event"
	TypeActuatorFault  = "actuator_fault"
)

// Event is the unit delivered on the bus. Never mutated after creation.
type Event struct {
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Time          time.Time `json:"timestamp"`
	Payload       any       `json:"payload,omitempty"`
}

// New creates an event stamped with the current time.
func New(eventType, correlationID string, payload any) Event {
	return Event{
		Type:          eventType,
		CorrelationID: correlationID,
		Time:          time.Now().UTC(),
		Payload:       payload,
	}
}

// ProximityPayload reports an ENTER or EXIT of the critical zone.
type ProximityPayload struct {
	Kind       string  `json:"kind"` // "enter" or "exit"
	DistanceCM float64 `json:"distance_cm"`
}

// CaptureStartPayload marks the start of a capture round trip.
type CaptureStartPayload struct {
	DistanceCM float64 `json:"distance_cm,omitempty"`
}

// CaptureResultPayload reports one classifier attempt.
type CaptureResultPayload struct {
	Attempt    int     `json:"attempt"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	LatencyMs  int64   `json:"latency_ms"`
	Error      string  `json:"error,omitempty"`
}

// DecisionPayload reports the confidence-gated decision for a cycle.
type DecisionPayload struct {
	Outcome    string  `json:"outcome"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity,omitempty"`
}

// ActuationPayload reports an actuator turning on or off.
type ActuationPayload struct {
	Actuator string `json:"actuator"`
	// On actuation_end: how long the actuator was held on.
	HeldMs int64 `json:"held_ms,omitempty"`
	// Forced is true when the release came from cancellation or the
	// global safety cutoff rather than the planned duration.
	Forced bool `json:"forced,omitempty"`
}

// ActuatorFaultPayload surfaces an actuator collaborator failure.
type ActuatorFaultPayload struct {
	Actuator string `json:"actuator"`
	Op       string `json:"op"` // "on" or "off"
	Error    string `json:"error"`
}

// CycleCompletePayload closes out a detection cycle.
type CycleCompletePayload struct {
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"duration_ms"`
	CooldownMs int64  `json:"cooldown_ms"`
}

// DroppedTriggerPayload records an ENTER that arrived mid-cycle.
type DroppedTriggerPayload struct {
	DistanceCM float64 `json:"distance_cm"`
	// Phase the pipeline was in when the trigger was refused.
	Phase string `json:"phase"`
}

// DroppedEventPayload records bus overflow for a slow subscriber.
type DroppedEventPayload struct {
	Subscriber string `json:"subscriber"`
	Dropped    int    `json:"dropped"`
}
