// Package pipeline ties the detection components into the end-to-end
// cycle: monitor → trigger → capture → classify → act → cool down →
// monitor. The single-flight guard is an atomic Idle→Triggered
// transition that only one ENTER can win; everything downstream runs
// in one cycle goroutine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/deterrent"
	"github.com/fieldguard/go-fieldguard/pkg/distance"
	"github.com/fieldguard/go-fieldguard/pkg/event"
	"github.com/fieldguard/go-fieldguard/pkg/proximity"
)

// CaptureRunner is the capture client capability the orchestrator
// needs: one round trip ending in a terminal decision.
type CaptureRunner interface {
	Run(ctx context.Context, correlationID string, distanceCM float64) classify.Decision
}

// DeterrentRunner is the deterrent controller capability.
type DeterrentRunner interface {
	Execute(ctx context.Context, plan deterrent.Plan, correlationID string) deterrent.Report
	AllOff(ctx context.Context) error
}

// Config holds the orchestrator's tunables.
type Config struct {
	// Plan is the deterrent schedule fired on Confirm.
	Plan deterrent.Plan

	// Cooldown after Confirm or Inconclusive before re-arming.
	Cooldown time.Duration

	// RejectCooldown after a confirmed non-target. Setting it to zero
	// allows immediate re-trigger on Reject.
	RejectCooldown time.Duration
}

// Orchestrator owns the cycle state machine.
type Orchestrator struct {
	phase atomic.Int32

	capture   CaptureRunner
	deterrent DeterrentRunner
	bus       event.Publisher
	cfg       Config
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.RWMutex
	currentCorr  string
	lastDecision *classify.Decision
}

// New creates an orchestrator in the Idle phase.
func New(cap CaptureRunner, det DeterrentRunner, bus event.Publisher,
	cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		capture:   cap,
		deterrent: det,
		bus:       bus,
		cfg:       cfg,
		logger:    logger.With("component", "pipeline"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Phase returns the current cycle phase.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

// LastDecision returns the most recent terminal decision, if any.
func (o *Orchestrator) LastDecision() *classify.Decision {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastDecision
}

// Watch consumes the sampler stream, runs it through the threshold
// monitor, and feeds crossings into the state machine. Returns when
// the samples channel closes or ctx is cancelled.
func (o *Orchestrator) Watch(ctx context.Context, samples <-chan distance.Sample, mon *proximity.Monitor) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			var ev *proximity.Event
			if s.Err != nil {
				ev = mon.Fault(time.Now())
			} else {
				ev = mon.Observe(s.Reading)
			}
			if ev != nil {
				o.HandleProximity(*ev)
			}
		}
	}
}

// HandleProximity feeds one confirmed zone crossing into the state
// machine. An ENTER while any cycle is active is recorded as a dropped
// trigger and discarded.
func (o *Orchestrator) HandleProximity(ev proximity.Event) {
	if ev.Kind == proximity.Exit {
		o.bus.Publish(event.New(event.TypeProximity, "", event.ProximityPayload{
			Kind:       ev.Kind.String(),
			DistanceCM: ev.DistanceCM,
		}))
		if ev.Forced {
			o.logger.Warn("forced exit from stale sensor")
		}
		return
	}

	// Single-flight: only one caller wins Idle -> Triggered.
	if !o.phase.CompareAndSwap(int32(Idle), int32(Triggered)) {
		o.mu.RLock()
		corr := o.currentCorr
		o.mu.RUnlock()
		o.logger.Info("trigger dropped, cycle active",
			"phase", o.Phase().String(), "distance_cm", ev.DistanceCM)
		o.bus.Publish(event.New(event.TypeDroppedTrigger, corr, event.DroppedTriggerPayload{
			DistanceCM: ev.DistanceCM,
			Phase:      o.Phase().String(),
		}))
		return
	}

	corr := uuid.NewString()
	o.mu.Lock()
	o.currentCorr = corr
	o.mu.Unlock()

	o.bus.Publish(event.New(event.TypeProximity, corr, event.ProximityPayload{
		Kind:       ev.Kind.String(),
		DistanceCM: ev.DistanceCM,
	}))
	o.logger.Info("intrusion trigger", "correlation_id", corr, "distance_cm", ev.DistanceCM)

	o.wg.Add(1)
	go o.runCycle(corr, ev.DistanceCM)
}

// runCycle drives one detection cycle to its terminal state. Every
// exit path ends back in Idle with no actuator left on.
func (o *Orchestrator) runCycle(corr string, distanceCM float64) {
	defer o.wg.Done()
	start := time.Now()

	o.phase.Store(int32(Capturing))
	decision := o.capture.Run(o.ctx, corr, distanceCM)

	o.phase.Store(int32(Classifying))
	o.mu.Lock()
	o.lastDecision = &decision
	o.mu.Unlock()
	o.bus.Publish(event.New(event.TypeDecision, corr, event.DecisionPayload{
		Outcome:    string(decision.Outcome),
		Label:      decision.Label,
		Confidence: decision.Confidence,
		Severity:   decision.Severity,
	}))
	o.logger.Info("decision", "correlation_id", corr,
		"outcome", decision.Outcome, "label", decision.Label,
		"confidence", decision.Confidence)

	if decision.Outcome == classify.Confirm && o.ctx.Err() == nil {
		o.phase.Store(int32(Acting))
		report := o.deterrent.Execute(o.ctx, o.cfg.Plan, corr)
		if report.Faults > 0 {
			o.logger.Warn("actuation completed with faults",
				"correlation_id", corr, "faults", report.Faults)
		}
	}

	cooldown := o.cfg.Cooldown
	if decision.Outcome == classify.Reject {
		cooldown = o.cfg.RejectCooldown
	}

	o.phase.Store(int32(Cooldown))
	o.bus.Publish(event.New(event.TypeCycleComplete, corr, event.CycleCompletePayload{
		Outcome:    string(decision.Outcome),
		DurationMs: time.Since(start).Milliseconds(),
		CooldownMs: cooldown.Milliseconds(),
	}))

	if cooldown > 0 {
		select {
		case <-time.After(cooldown):
		case <-o.ctx.Done():
		}
	}

	o.mu.Lock()
	o.currentCorr = ""
	o.mu.Unlock()
	o.phase.Store(int32(Idle))
	o.logger.Debug("cycle complete, back to idle", "correlation_id", corr)
}

// Shutdown cancels any in-flight cycle, waits for it to unwind, then
// forces every actuator off. It does not return success until the
// actuators are confirmed off.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("pipeline: shutdown wait: %w", ctx.Err())
	}

	if err := o.deterrent.AllOff(ctx); err != nil {
		return fmt.Errorf("pipeline: forcing actuators off: %w", err)
	}
	return nil
}
