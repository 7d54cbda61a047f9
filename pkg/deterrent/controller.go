package deterrent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/event"
)

// releaseTimeout bounds each OFF call. Release must not depend on the
// execution context, which may already be cancelled.
const releaseTimeout = 2 * time.Second

// Controller executes deterrent plans against the actuator collaborator.
type Controller struct {
	client    Client
	actuators []ActuatorID // every actuator we may ever touch
	maxTotal  time.Duration
	bus       event.Publisher
	logger    *slog.Logger
}

// NewController creates a controller. actuators lists every configured
// actuator so AllOff can sweep them even outside a plan.
func NewController(client Client, actuators []ActuatorID, maxTotal time.Duration,
	bus event.Publisher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:    client,
		actuators: actuators,
		maxTotal:  maxTotal,
		bus:       bus,
		logger:    logger.With("component", "deterrent"),
	}
}

// Execute runs the plan. Steps run concurrently per their start
// offsets, all bounded by the global safety cutoff. Actuator faults
// are recorded and published but do not abort the remaining steps.
// On return, every actuator the plan touches has been set off.
func (c *Controller) Execute(ctx context.Context, plan Plan, correlationID string) Report {
	ctx, cancel := context.WithTimeout(ctx, c.maxTotal)
	defer cancel()

	report := Report{Steps: make([]StepReport, len(plan))}

	var wg sync.WaitGroup
	for i, step := range plan {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()
			report.Steps[i] = c.runStep(ctx, step, correlationID)
		}(i, step)
	}
	wg.Wait()

	for _, sr := range report.Steps {
		if sr.OnErr != nil || sr.OffErr != nil {
			report.Faults++
		}
	}

	// Final sweep: belt and braces for the release guarantee. Set is
	// idempotent, so re-asserting OFF on an already-off pin is fine.
	c.forceOff(plan.Actuators(), correlationID)

	return report
}

// runStep drives one actuator through wait → on → hold → off.
func (c *Controller) runStep(ctx context.Context, step Step, correlationID string) StepReport {
	sr := StepReport{Actuator: step.Actuator}

	if step.StartOffset > 0 {
		select {
		case <-time.After(step.StartOffset):
		case <-ctx.Done():
			sr.Skipped = true
			return sr
		}
	}
	if ctx.Err() != nil {
		sr.Skipped = true
		return sr
	}

	if err := c.set(step.Actuator, true); err != nil {
		sr.OnErr = err
		c.fault(correlationID, step.Actuator, "on", err)
		return sr
	}
	on := time.Now()
	c.bus.Publish(event.New(event.TypeActuationStart, correlationID,
		event.ActuationPayload{Actuator: string(step.Actuator)}))
	c.logger.Info("actuator on", "actuator", step.Actuator, "duration", step.Duration)

	select {
	case <-time.After(step.Duration):
	case <-ctx.Done():
		sr.Forced = true
	}

	if err := c.set(step.Actuator, false); err != nil {
		sr.OffErr = err
		c.fault(correlationID, step.Actuator, "off", err)
	}
	sr.Held = time.Since(on)
	c.bus.Publish(event.New(event.TypeActuationEnd, correlationID,
		event.ActuationPayload{
			Actuator: string(step.Actuator),
			HeldMs:   sr.Held.Milliseconds(),
			Forced:   sr.Forced,
		}))
	c.logger.Info("actuator off",
		"actuator", step.Actuator, "held", sr.Held, "forced", sr.Forced)
	return sr
}

// AllOff forces every configured actuator off. Called at shutdown;
// does not return until each Set has completed or timed out.
func (c *Controller) AllOff(ctx context.Context) error {
	var lastErr error
	for _, a := range c.actuators {
		offCtx, cancel := context.WithTimeout(ctx, releaseTimeout)
		err := c.client.Set(offCtx, a, false)
		cancel()
		if err != nil {
			lastErr = err
			c.logger.Error("failed to force actuator off", "actuator", a, "error", err)
		}
	}
	return lastErr
}

// forceOff re-asserts OFF on the given actuators, logging faults only.
func (c *Controller) forceOff(actuators []ActuatorID, correlationID string) {
	for _, a := range actuators {
		if err := c.set(a, false); err != nil {
			c.fault(correlationID, a, "off", err)
		}
	}
}

// set performs one pin write with its own deadline, detached from the
// plan's context so cancellation cannot block a release.
func (c *Controller) set(a ActuatorID, on bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	return c.client.Set(ctx, a, on)
}

func (c *Controller) fault(correlationID string, a ActuatorID, op string, err error) {
	c.logger.Error("actuator fault", "actuator", a, "op", op, "error", err)
	c.bus.Publish(event.New(event.TypeActuatorFault, correlationID,
		event.ActuatorFaultPayload{Actuator: string(a), Op: op, Error: err.Error()}))
}
