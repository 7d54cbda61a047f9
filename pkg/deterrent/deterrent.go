// Package deterrent drives the physical deterrents: floodlight,
// buzzer, and water pump. The controller's one hard guarantee is that
// every actuator it turns on gets turned off, whether the plan ran to
// completion, hit the safety cutoff, or was cancelled mid-hold.
package deterrent

import "time"

// ActuatorID identifies one physical deterrent.
type ActuatorID string

// The deterrents wired to the GPIO collaborator.
const (
	Light  ActuatorID = "light"
	Buzzer ActuatorID = "buzzer"
	Pump   ActuatorID = "pump"
)

// Step is one scheduled activation within a plan. Steps with the same
// StartOffset overlap; staggered offsets sequence them.
type Step struct {
	Actuator    ActuatorID
	StartOffset time.Duration
	Duration    time.Duration
}

// Plan is the ordered activation schedule for one confirmed intrusion.
// Fully consumed during actuation.
type Plan []Step

// Actuators returns the distinct actuators the plan touches.
func (p Plan) Actuators() []ActuatorID {
	seen := make(map[ActuatorID]struct{}, len(p))
	var out []ActuatorID
	for _, s := range p {
		if _, ok := seen[s.Actuator]; !ok {
			seen[s.Actuator] = struct{}{}
			out = append(out, s.Actuator)
		}
	}
	return out
}

// StepReport records what actually happened to one plan step.
type StepReport struct {
	Actuator ActuatorID
	// Skipped is true when cancellation or the safety cutoff hit
	// before the step's start offset elapsed.
	Skipped bool
	// Forced is true when the release came from cancellation or the
	// safety cutoff, not the planned duration.
	Forced bool
	Held   time.Duration
	OnErr  error
	OffErr error
}

// Report summarizes one plan execution.
type Report struct {
	Steps  []StepReport
	Faults int
}
