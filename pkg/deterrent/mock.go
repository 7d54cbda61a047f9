package deterrent

import (
	"context"
	"sync"
	"time"
)

// Transition records one Set call on the mock.
type Transition struct {
	Actuator ActuatorID
	On       bool
	Time     time.Time
}

// MockClient implements Client for testing, recording every transition.
type MockClient struct {
	// SetFunc, if set, overrides the default no-op behavior.
	SetFunc func(ctx context.Context, id ActuatorID, on bool) error

	mu          sync.Mutex
	transitions []Transition
	state       map[ActuatorID]bool
}

// NewMockClient creates a recording mock actuator client.
func NewMockClient() *MockClient {
	return &MockClient{state: make(map[ActuatorID]bool)}
}

// Set implements Client.
func (m *MockClient) Set(ctx context.Context, id ActuatorID, on bool) error {
	if m.SetFunc != nil {
		if err := m.SetFunc(ctx, id, on); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.transitions = append(m.transitions, Transition{Actuator: id, On: on, Time: time.Now()})
	m.state[id] = on
	m.mu.Unlock()
	return nil
}

// Transitions returns a copy of all recorded Set calls.
func (m *MockClient) Transitions() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transition(nil), m.transitions...)
}

// IsOn reports the last requested state for an actuator.
func (m *MockClient) IsOn(id ActuatorID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[id]
}

// AnyOn reports whether any actuator is currently on.
func (m *MockClient) AnyOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, on := range m.state {
		if on {
			return true
		}
	}
	return false
}
