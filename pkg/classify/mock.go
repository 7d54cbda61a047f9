package classify

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, returns a confident "boar".
	ClassifyFunc func(ctx context.Context, image []byte) (*Result, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock classifier.
func NewMock() *Mock {
	return &Mock{}
}

// Classify implements Provider.
func (m *Mock) Classify(ctx context.Context, image []byte) (*Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, image)
	}
	return &Result{Label: "boar", Confidence: 0.92, LatencyMs: 12}, nil
}

// Calls returns how many times Classify was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
