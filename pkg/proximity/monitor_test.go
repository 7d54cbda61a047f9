package proximity

import (
	"testing"
	"time"

	"github.com/fieldguard/go-fieldguard/pkg/distance"
)

func testConfig() Config {
	return Config{
		ThresholdCM:       50,
		HysteresisMargin:  5,
		EnterConfirmCount: 2,
		ExitConfirmCount:  3,
		StalenessWindow:   100 * time.Millisecond,
	}
}

func feed(m *Monitor, values []float64) []*Event {
	var events []*Event
	for _, v := range values {
		if ev := m.Observe(distance.Reading{DistanceCM: v, Time: time.Now()}); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func TestMonitor_EnterAfterConfirmCount(t *testing.T) {
	m := NewMonitor(testConfig())

	// Approach: two consecutive sub-threshold readings are 48 and 47,
	// so the ENTER must fire on the 5th reading.
	values := []float64{60, 55, 52, 48, 47, 46}
	var fired int
	for i, v := range values {
		ev := m.Observe(distance.Reading{DistanceCM: v, Time: time.Now()})
		if ev == nil {
			continue
		}
		fired = i + 1
		if ev.Kind != Enter {
			t.Fatalf("expected Enter, got %v", ev.Kind)
		}
	}
	if fired != 5 {
		t.Errorf("expected ENTER at reading 5, fired at %d", fired)
	}
}

func TestMonitor_NoConsecutiveEnters(t *testing.T) {
	m := NewMonitor(testConfig())

	// Stay inside the zone for a long stretch: exactly one ENTER.
	events := feed(m, []float64{40, 40, 40, 40, 40, 40, 40, 40})
	if len(events) != 1 || events[0].Kind != Enter {
		t.Fatalf("expected exactly one Enter, got %d events", len(events))
	}

	// Leave, confirm, and come back: Exit then Enter, never two Enters.
	events = feed(m, []float64{60, 60, 60, 40, 40})
	if len(events) != 2 {
		t.Fatalf("expected Exit then Enter, got %d events", len(events))
	}
	if events[0].Kind != Exit || events[1].Kind != Enter {
		t.Errorf("expected [Exit, Enter], got [%v, %v]", events[0].Kind, events[1].Kind)
	}
}

func TestMonitor_HysteresisBandBreaksStreaks(t *testing.T) {
	m := NewMonitor(testConfig())
	feed(m, []float64{40, 40}) // inside

	// Readings in (50, 55] sit inside the hysteresis band: they must
	// not count toward exit, however many arrive.
	events := feed(m, []float64{52, 53, 54, 52, 53, 54})
	if len(events) != 0 {
		t.Fatalf("expected no events inside hysteresis band, got %d", len(events))
	}
	if !m.Inside() {
		t.Error("monitor should still consider target inside")
	}

	// Band readings also break an exit streak in progress.
	events = feed(m, []float64{60, 60, 52, 60, 60, 60})
	if len(events) != 1 || events[0].Kind != Exit {
		t.Fatalf("expected one Exit after three clean samples, got %d events", len(events))
	}
}

func TestMonitor_FaultDoesNotResetCounters(t *testing.T) {
	m := NewMonitor(testConfig())

	if ev := m.Observe(distance.Reading{DistanceCM: 40, Time: time.Now()}); ev != nil {
		t.Fatal("unexpected event on first sub-threshold sample")
	}
	// A fault is "no data": the enter streak survives it.
	if ev := m.Fault(time.Now()); ev != nil {
		t.Fatal("unexpected event on first fault")
	}
	ev := m.Observe(distance.Reading{DistanceCM: 40, Time: time.Now()})
	if ev == nil || ev.Kind != Enter {
		t.Fatal("expected Enter on second sub-threshold sample despite fault")
	}
}

func TestMonitor_StalenessForcesExit(t *testing.T) {
	m := NewMonitor(testConfig())
	feed(m, []float64{40, 40}) // inside

	base := time.Now()
	if ev := m.Fault(base); ev != nil {
		t.Fatal("first fault must not force exit")
	}
	ev := m.Fault(base.Add(200 * time.Millisecond))
	if ev == nil || ev.Kind != Exit || !ev.Forced {
		t.Fatalf("expected forced Exit after staleness window, got %+v", ev)
	}
	// Only once.
	if ev := m.Fault(base.Add(400 * time.Millisecond)); ev != nil {
		t.Errorf("expected no second forced exit, got %+v", ev)
	}
}

func TestMonitor_StalenessWhileOutsideIsQuiet(t *testing.T) {
	m := NewMonitor(testConfig())
	base := time.Now()
	m.Fault(base)
	if ev := m.Fault(base.Add(time.Second)); ev != nil {
		t.Errorf("no forced exit expected while outside the zone, got %+v", ev)
	}
}
