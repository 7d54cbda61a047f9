// Package proximity turns the raw distance stream into discrete
// ENTER/EXIT events for the critical zone. Hysteresis with confirm
// counts keeps sensor jitter at the boundary from oscillating the
// pipeline on and off.
package proximity

import (
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/distance"
)

// Kind is the direction of a zone crossing.
type Kind int

const (
	// Enter means the target has been inside the critical zone for the
	// configured number of consecutive samples.
	Enter Kind = iota
	// Exit means the target has been clear of the zone (plus margin)
	// for the configured number of consecutive samples, or the sensor
	// went silent long enough to force a fail-safe exit.
	Exit
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == Enter {
		return "enter"
	}
	return "exit"
}

// Event is a confirmed zone crossing.
type Event struct {
	Kind       Kind
	DistanceCM float64
	Time       time.Time
	// Forced is true for the staleness fail-safe exit.
	Forced bool
}

// Config holds the hysteresis tuning.
type Config struct {
	ThresholdCM       float64
	HysteresisMargin  float64 // exit requires distance > ThresholdCM + margin
	EnterConfirmCount int
	ExitConfirmCount  int
	StalenessWindow   time.Duration // continuous sensor fault before forced exit
}

// Monitor applies debounce/hysteresis to the reading stream.
// Not safe for concurrent use; it is owned by the sampling loop.
type Monitor struct {
	cfg Config

	inside     bool
	belowCount int
	aboveCount int
	faultSince time.Time
}

// NewMonitor creates a monitor. Confirm counts below 1 are raised to 1.
func NewMonitor(cfg Config) *Monitor {
	if cfg.EnterConfirmCount < 1 {
		cfg.EnterConfirmCount = 1
	}
	if cfg.ExitConfirmCount < 1 {
		cfg.ExitConfirmCount = 1
	}
	return &Monitor{cfg: cfg}
}

// Inside reports whether the monitor currently considers the target in
// the critical zone.
func (m *Monitor) Inside() bool {
	return m.inside
}

// Observe feeds one valid reading through the hysteresis logic and
// returns a crossing event when one fires, else nil. Two ENTER events
// are never produced without an intervening EXIT.
func (m *Monitor) Observe(r distance.Reading) *Event {
	m.faultSince = time.Time{}

	switch {
	case r.DistanceCM < m.cfg.ThresholdCM:
		m.belowCount++
		m.aboveCount = 0
		if !m.inside && m.belowCount >= m.cfg.EnterConfirmCount {
			m.inside = true
			m.belowCount = 0
			return &Event{Kind: Enter, DistanceCM: r.DistanceCM, Time: r.Time}
		}

	case r.DistanceCM > m.cfg.ThresholdCM+m.cfg.HysteresisMargin:
		m.aboveCount++
		m.belowCount = 0
		if m.inside && m.aboveCount >= m.cfg.ExitConfirmCount {
			m.inside = false
			m.aboveCount = 0
			return &Event{Kind: Exit, DistanceCM: r.DistanceCM, Time: r.Time}
		}

	default:
		// Inside the hysteresis band: breaks both streaks.
		m.belowCount = 0
		m.aboveCount = 0
	}

	return nil
}

// Fault feeds one sensor fault (stale, out of range, no data).
// Faults neither advance nor reset the hysteresis counters; after a
// continuous StalenessWindow of faults while inside the zone, a single
// forced EXIT fires as fail-safe so the pipeline never sits armed on a
// dead sensor.
func (m *Monitor) Fault(now time.Time) *Event {
	if m.faultSince.IsZero() {
		m.faultSince = now
		return nil
	}
	if m.cfg.StalenessWindow <= 0 || now.Sub(m.faultSince) < m.cfg.StalenessWindow {
		return nil
	}
	if !m.inside {
		return nil
	}
	m.inside = false
	m.belowCount = 0
	m.aboveCount = 0
	return &Event{Kind: Exit, Time: now, Forced: true}
}
