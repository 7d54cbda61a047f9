package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/deterrent"
	"github.com/fieldguard/go-fieldguard/pkg/distance"
	"github.com/fieldguard/go-fieldguard/pkg/event"
	"github.com/fieldguard/go-fieldguard/pkg/proximity"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(ev event.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) first(eventType string) (event.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return event.Event{}, false
}

type fakeCapture struct {
	mu       sync.Mutex
	calls    int
	decision classify.Decision

	// block, if non-nil, holds Run until closed or the context ends.
	block chan struct{}
}

func (f *fakeCapture) Run(ctx context.Context, correlationID string, distanceCM float64) classify.Decision {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	d := f.decision
	d.CorrelationID = correlationID
	return d
}

func (f *fakeCapture) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDeterrent struct {
	mu       sync.Mutex
	executes int
	allOffs  int
}

func (f *fakeDeterrent) Execute(ctx context.Context, plan deterrent.Plan, correlationID string) deterrent.Report {
	f.mu.Lock()
	f.executes++
	f.mu.Unlock()
	return deterrent.Report{}
}

func (f *fakeDeterrent) AllOff(ctx context.Context) error {
	f.mu.Lock()
	f.allOffs++
	f.mu.Unlock()
	return nil
}

func (f *fakeDeterrent) Executes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executes
}

func (f *fakeDeterrent) AllOffs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allOffs
}

func enter(distanceCM float64) proximity.Event {
	return proximity.Event{Kind: proximity.Enter, DistanceCM: distanceCM, Time: time.Now()}
}

func waitForPhase(t *testing.T, o *Orchestrator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Phase() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase never reached %v, stuck at %v", want, o.Phase())
}

func TestHandleProximity_SingleFlight(t *testing.T) {
	rec := &recorder{}
	cap := &fakeCapture{
		decision: classify.Decision{Outcome: classify.Inconclusive},
		block:    make(chan struct{}),
	}
	det := &fakeDeterrent{}
	o := New(cap, det, rec, Config{}, nil)

	o.HandleProximity(enter(42))
	o.HandleProximity(enter(41)) // mid-cycle: must be dropped

	if n := rec.count(event.TypeDroppedTrigger); n != 1 {
		t.Errorf("dropped_trigger events = %d, want 1", n)
	}

	close(cap.block)
	waitForPhase(t, o, Idle)

	if cap.Calls() != 1 {
		t.Errorf("capture runs = %d, want 1", cap.Calls())
	}
	// Once idle again, a new trigger wins.
	o.HandleProximity(enter(40))
	waitForPhase(t, o, Idle)
	if cap.Calls() != 2 {
		t.Errorf("capture runs after re-arm = %d, want 2", cap.Calls())
	}
}

func TestRunCycle_ConfirmActuatesAndCoolsDown(t *testing.T) {
	rec := &recorder{}
	cap := &fakeCapture{
		decision: classify.Decision{Outcome: classify.Confirm, Label: "boar", Confidence: 0.92},
	}
	det := &fakeDeterrent{}
	o := New(cap, det, rec, Config{
		Plan:     deterrent.Plan{{Actuator: deterrent.Light, Duration: time.Millisecond}},
		Cooldown: 30 * time.Millisecond,
	}, nil)

	start := time.Now()
	o.HandleProximity(enter(35))
	waitForPhase(t, o, Idle)

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("cooldown not observed, cycle took %v", elapsed)
	}
	if det.Executes() != 1 {
		t.Errorf("deterrent executions = %d, want 1", det.Executes())
	}
	for _, typ := range []string{
		event.TypeProximity, event.TypeDecision, event.TypeCycleComplete,
	} {
		if rec.count(typ) != 1 {
			t.Errorf("%s events = %d, want 1", typ, rec.count(typ))
		}
	}

	d := o.LastDecision()
	if d == nil || d.Outcome != classify.Confirm || d.Label != "boar" {
		t.Errorf("last decision = %+v", d)
	}
}

func TestRunCycle_RejectSkipsDeterrent(t *testing.T) {
	rec := &recorder{}
	cap := &fakeCapture{
		decision: classify.Decision{Outcome: classify.Reject, Label: "person", Confidence: 0.97},
	}
	det := &fakeDeterrent{}
	o := New(cap, det, rec, Config{
		Plan:     deterrent.Plan{{Actuator: deterrent.Pump, Duration: time.Second}},
		Cooldown: time.Minute, // would hang the test if applied to Reject
	}, nil)

	o.HandleProximity(enter(35))
	waitForPhase(t, o, Idle)

	if det.Executes() != 0 {
		t.Errorf("deterrent must not fire on Reject, got %d executions", det.Executes())
	}
	ev, ok := rec.first(event.TypeCycleComplete)
	if !ok {
		t.Fatal("cycle_complete not published")
	}
	if p := ev.Payload.(event.CycleCompletePayload); p.CooldownMs != 0 {
		t.Errorf("reject cooldown = %dms, want 0", p.CooldownMs)
	}
}

func TestShutdown_MidCycleForcesActuatorsOff(t *testing.T) {
	rec := &recorder{}
	cap := &fakeCapture{
		decision: classify.Decision{Outcome: classify.Confirm, Label: "boar", Confidence: 0.9},
		block:    make(chan struct{}), // never closed: only ctx releases it
	}
	det := &fakeDeterrent{}
	o := New(cap, det, rec, Config{
		Plan:     deterrent.Plan{{Actuator: deterrent.Pump, Duration: time.Minute}},
		Cooldown: time.Minute,
	}, nil)

	o.HandleProximity(enter(30))
	waitForPhase(t, o, Capturing)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if det.AllOffs() != 1 {
		t.Errorf("AllOff calls = %d, want 1", det.AllOffs())
	}
	// The cancelled cycle must not have started actuation.
	if det.Executes() != 0 {
		t.Errorf("deterrent fired during shutdown: %d executions", det.Executes())
	}
}

func TestWatch_FeedsMonitorCrossings(t *testing.T) {
	rec := &recorder{}
	cap := &fakeCapture{decision: classify.Decision{Outcome: classify.Inconclusive}}
	det := &fakeDeterrent{}
	o := New(cap, det, rec, Config{}, nil)

	mon := proximity.NewMonitor(proximity.Config{
		ThresholdCM:       50,
		HysteresisMargin:  5,
		EnterConfirmCount: 2,
		ExitConfirmCount:  2,
		StalenessWindow:   time.Second,
	})

	samples := make(chan distance.Sample)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Watch(ctx, samples, mon)
		close(done)
	}()

	for _, cm := range []float64{60, 40, 40} {
		samples <- distance.Sample{Reading: distance.Reading{DistanceCM: cm, Time: time.Now()}}
	}

	deadline := time.Now().Add(2 * time.Second)
	for cap.Calls() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cap.Calls() != 1 {
		t.Errorf("capture runs = %d, want 1", cap.Calls())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return on context cancellation")
	}
}
