// Package distance produces the stream of proximity readings that
// drives the detection pipeline. The physical sensor is an ultrasonic
// rangefinder on a remote node that pushes one reading per second over
// TCP; the sampler turns that into a fixed-rate, noise-smoothed
// sequence of Readings.
package distance

import (
	"errors"
	"time"
)

// HC-SR04 measurement envelope. Values outside it are sensor noise
// (echo timeout, crosstalk), not real distances.
const (
	MinRangeCM = 2.0
	MaxRangeCM = 400.0
)

// Sensor read failures. All of them mean "no data", never ENTER or EXIT.
var (
	// ErrNoReading is returned before the sender has delivered anything.
	ErrNoReading = errors.New("distance: no reading received yet")

	// ErrStale is returned when the latest reading is older than the
	// configured staleness bound (sender stopped or disconnected).
	ErrStale = errors.New("distance: reading is stale")

	// ErrOutOfRange is returned for readings outside the sensor envelope.
	ErrOutOfRange = errors.New("distance: reading out of range")
)

// Reading is a single distance measurement. Immutable.
type Reading struct {
	DistanceCM float64
	Time       time.Time
}

// Sensor yields the most recent distance measurement.
type Sensor interface {
	Read() (Reading, error)
}
