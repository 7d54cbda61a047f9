package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/camera"
	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/event"
)

// recorder collects published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(ev event.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) byType(eventType string) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func testClient(cam camera.Provider, cls classify.Provider, rec *recorder) *Client {
	gate := classify.NewGate(0.8, []string{"boar", "cow"})
	return NewClient(cam, cls, gate, rec, Config{
		CaptureTimeout: 100 * time.Millisecond,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
	}, nil)
}

func TestRun_ConfirmOnConfidentTarget(t *testing.T) {
	rec := &recorder{}
	c := testClient(camera.NewMock(), classify.NewMock(), rec)

	d := c.Run(context.Background(), "corr-1", 42)
	if d.Outcome != classify.Confirm {
		t.Fatalf("outcome = %v, want Confirm", d.Outcome)
	}
	if d.CorrelationID != "corr-1" {
		t.Errorf("correlation id = %q", d.CorrelationID)
	}

	if n := len(rec.byType(event.TypeCaptureStart)); n != 1 {
		t.Errorf("capture_start events = %d, want 1", n)
	}
	results := rec.byType(event.TypeCaptureResult)
	if len(results) != 1 {
		t.Fatalf("capture_result events = %d, want 1", len(results))
	}
}

func TestRun_RetriesExhaustedIsInconclusive(t *testing.T) {
	rec := &recorder{}
	cls := classify.NewMock()
	cls.ClassifyFunc = func(ctx context.Context, image []byte) (*classify.Result, error) {
		return nil, context.DeadlineExceeded
	}
	c := testClient(camera.NewMock(), cls, rec)

	d := c.Run(context.Background(), "corr-2", 42)
	if d.Outcome != classify.Inconclusive {
		t.Fatalf("outcome = %v, want Inconclusive", d.Outcome)
	}
	if cls.Calls() != 3 {
		t.Errorf("classifier calls = %d, want 3", cls.Calls())
	}

	results := rec.byType(event.TypeCaptureResult)
	if len(results) != 3 {
		t.Fatalf("capture_result events = %d, want 3", len(results))
	}
	for i, ev := range results {
		p := ev.Payload.(event.CaptureResultPayload)
		if p.Attempt != i+1 {
			t.Errorf("result %d has attempt %d", i, p.Attempt)
		}
		if p.Error == "" {
			t.Errorf("result %d missing error", i)
		}
	}
}

func TestRun_NonTransientFailsImmediately(t *testing.T) {
	rec := &recorder{}
	cls := classify.NewMock()
	cls.ClassifyFunc = func(ctx context.Context, image []byte) (*classify.Result, error) {
		return nil, classify.ErrMalformedResponse
	}
	c := testClient(camera.NewMock(), cls, rec)

	d := c.Run(context.Background(), "corr-3", 42)
	if d.Outcome != classify.Inconclusive {
		t.Fatalf("outcome = %v, want Inconclusive", d.Outcome)
	}
	if cls.Calls() != 1 {
		t.Errorf("classifier calls = %d, want 1 (no retry on malformed response)", cls.Calls())
	}
}

func TestRun_CameraUnavailableIsInconclusive(t *testing.T) {
	rec := &recorder{}
	cam := camera.NewMock()
	cam.CaptureFunc = func() ([]byte, error) {
		return nil, camera.ErrUnavailable
	}
	cls := classify.NewMock()
	c := testClient(cam, cls, rec)

	d := c.Run(context.Background(), "corr-4", 42)
	if d.Outcome != classify.Inconclusive {
		t.Fatalf("outcome = %v, want Inconclusive", d.Outcome)
	}
	if cls.Calls() != 0 {
		t.Errorf("classifier must not be called without a frame, got %d calls", cls.Calls())
	}
	results := rec.byType(event.TypeCaptureResult)
	if len(results) != 1 {
		t.Fatalf("capture_result events = %d, want 1", len(results))
	}
	if p := results[0].Payload.(event.CaptureResultPayload); p.Error == "" {
		t.Error("capture failure event missing error")
	}
}

func TestRun_SlowCameraTimesOut(t *testing.T) {
	rec := &recorder{}
	cam := camera.NewMock()
	cam.CaptureFunc = func() ([]byte, error) {
		time.Sleep(500 * time.Millisecond)
		return []byte("late frame"), nil
	}
	c := testClient(cam, classify.NewMock(), rec)

	start := time.Now()
	d := c.Run(context.Background(), "corr-5", 42)
	if d.Outcome != classify.Inconclusive {
		t.Fatalf("outcome = %v, want Inconclusive", d.Outcome)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("capture timeout not honored, took %v", elapsed)
	}
}

func TestRun_RejectOnNonTarget(t *testing.T) {
	rec := &recorder{}
	cls := classify.NewMock()
	cls.ClassifyFunc = func(ctx context.Context, image []byte) (*classify.Result, error) {
		return &classify.Result{Label: "person", Confidence: 0.97}, nil
	}
	c := testClient(camera.NewMock(), cls, rec)

	d := c.Run(context.Background(), "corr-6", 42)
	if d.Outcome != classify.Reject {
		t.Fatalf("outcome = %v, want Reject", d.Outcome)
	}
}

func TestRun_CancelledContextStopsRetrying(t *testing.T) {
	rec := &recorder{}
	cls := classify.NewMock()
	cls.ClassifyFunc = func(ctx context.Context, image []byte) (*classify.Result, error) {
		return nil, errors.New("connection reset")
	}
	c := testClient(camera.NewMock(), cls, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := c.Run(ctx, "corr-7", 42)
	if d.Outcome != classify.Inconclusive {
		t.Fatalf("outcome = %v, want Inconclusive", d.Outcome)
	}
}
