package pipeline

// Phase is the detection cycle's state. Exactly one cycle exists
// system-wide; a new one may only start from Idle.
type Phase int32

const (
	Idle Phase = iota
	Triggered
	Capturing
	Classifying
	Acting
	Cooldown
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Triggered:
		return "triggered"
	case Capturing:
		return "capturing"
	case Classifying:
		return "classifying"
	case Acting:
		return "acting"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}
