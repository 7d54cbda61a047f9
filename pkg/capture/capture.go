// Package capture owns the trigger-to-decision round trip: grab a
// frame from the camera, ship it to the remote classifier with bounded
// retries, and gate the answer. Whatever goes wrong, the caller always
// gets a terminal Decision back so the pipeline can return to
// monitoring; errors degrade to Inconclusive, never propagate.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/camera"
	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/event"
)

// Config holds the round-trip policy.
type Config struct {
	// CaptureTimeout bounds the wait for a camera frame.
	CaptureTimeout time.Duration

	// MaxRetries is the number of classifier attempts (not extra
	// attempts: MaxRetries=3 means up to three calls total).
	MaxRetries int

	// RetryDelay is the base backoff; each retry doubles it, capped at
	// MaxRetryDelay, with ±25% jitter.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultConfig returns the recommended round-trip policy.
func DefaultConfig() Config {
	return Config{
		CaptureTimeout: 2 * time.Second,
		MaxRetries:     3,
		RetryDelay:     200 * time.Millisecond,
		MaxRetryDelay:  2 * time.Second,
	}
}

// Client performs the capture-and-classify round trip.
type Client struct {
	camera     camera.Provider
	classifier classify.Provider
	gate       *classify.Gate
	bus        event.Publisher
	cfg        Config
	logger     *slog.Logger
}

// NewClient creates a capture client.
func NewClient(cam camera.Provider, cls classify.Provider, gate *classify.Gate,
	bus event.Publisher, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 2 * time.Second
	}
	return &Client{
		camera:     cam,
		classifier: cls,
		gate:       gate,
		bus:        bus,
		cfg:        cfg,
		logger:     logger.With("component", "capture"),
	}
}

// Run executes one round trip for the given cycle and returns its
// terminal decision. Emits capture_start once and one capture_result
// per classifier attempt.
func (c *Client) Run(ctx context.Context, correlationID string, distanceCM float64) classify.Decision {
	c.bus.Publish(event.New(event.TypeCaptureStart, correlationID,
		event.CaptureStartPayload{DistanceCM: distanceCM}))

	inconclusive := classify.Decision{
		Outcome:       classify.Inconclusive,
		CorrelationID: correlationID,
	}

	frame, err := c.captureFrame(ctx)
	if err != nil {
		c.logger.Warn("frame capture failed", "correlation_id", correlationID, "error", err)
		c.bus.Publish(event.New(event.TypeCaptureResult, correlationID,
			event.CaptureResultPayload{Attempt: 0, Error: err.Error()}))
		return inconclusive
	}

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		start := time.Now()
		result, err := c.classifier.Classify(ctx, frame)
		latency := time.Since(start).Milliseconds()

		if err == nil {
			c.bus.Publish(event.New(event.TypeCaptureResult, correlationID,
				event.CaptureResultPayload{
					Attempt:    attempt,
					Label:      result.Label,
					Confidence: result.Confidence,
					LatencyMs:  latency,
				}))
			return c.gate.Evaluate(result, correlationID)
		}

		c.bus.Publish(event.New(event.TypeCaptureResult, correlationID,
			event.CaptureResultPayload{
				Attempt:   attempt,
				LatencyMs: latency,
				Error:     err.Error(),
			}))

		if !classify.IsTransient(err) {
			c.logger.Warn("non-transient classifier error",
				"correlation_id", correlationID, "error", err)
			return inconclusive
		}
		if ctx.Err() != nil || attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.backoff(attempt)
		c.logger.Debug("classifier attempt failed, retrying",
			"correlation_id", correlationID, "attempt", attempt,
			"delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return inconclusive
		}
	}

	c.logger.Warn("classifier retries exhausted", "correlation_id", correlationID)
	return inconclusive
}

// captureFrame requests a frame from the camera collaborator, bounded
// by CaptureTimeout. The provider call has no cancellation hook, so a
// late frame is simply discarded.
func (c *Client) captureFrame(ctx context.Context) ([]byte, error) {
	type frameResult struct {
		frame []byte
		err   error
	}
	ch := make(chan frameResult, 1)
	go func() {
		frame, err := c.camera.CaptureFrame()
		ch <- frameResult{frame, err}
	}()

	timer := time.NewTimer(c.cfg.CaptureTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, camera.ErrUnavailable) {
				return nil, r.err
			}
			return nil, camera.ErrUnavailable
		}
		return r.frame, nil
	case <-timer.C:
		return nil, camera.ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// backoff returns the jittered exponential delay before the next attempt.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.RetryDelay << (attempt - 1)
	if delay > c.cfg.MaxRetryDelay || delay <= 0 {
		delay = c.cfg.MaxRetryDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2+1)) - delay/4
	return delay + jitter
}
