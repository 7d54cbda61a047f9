package distance

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Sample is one tick of the sampler: either a smoothed reading or a
// sensor fault. Faults are data too; the threshold monitor uses them
// to drive its staleness fail-safe.
type Sample struct {
	Reading Reading
	Err     error
}

// Sampler polls a Sensor at a fixed interval and applies a small
// moving-median window to reject single-sample spikes.
type Sampler struct {
	sensor   Sensor
	interval time.Duration
	window   int
	logger   *slog.Logger

	// ring of recent valid values for the median
	recent []float64
}

// NewSampler creates a sampler. A window below 1 disables smoothing.
func NewSampler(sensor Sensor, interval time.Duration, window int, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	if window < 1 {
		window = 1
	}
	return &Sampler{
		sensor:   sensor,
		interval: interval,
		window:   window,
		logger:   logger.With("component", "sampler"),
	}
}

// Run emits one Sample per interval on out until ctx is cancelled.
// The out channel is closed on return. The sampler never blocks longer
// than its interval: if the consumer is not ready the tick is skipped.
func (s *Sampler) Run(ctx context.Context, out chan<- Sample) {
	defer close(out)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sample := s.next()
		select {
		case out <- sample:
		case <-ctx.Done():
			return
		default:
			s.logger.Debug("consumer not ready, skipping sample")
		}
	}
}

// next reads the sensor once and folds the value into the window.
func (s *Sampler) next() Sample {
	r, err := s.sensor.Read()
	if err != nil {
		return Sample{Err: err}
	}

	s.recent = append(s.recent, r.DistanceCM)
	if len(s.recent) > s.window {
		s.recent = s.recent[1:]
	}
	r.DistanceCM = median(s.recent)
	return Sample{Reading: r}
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
