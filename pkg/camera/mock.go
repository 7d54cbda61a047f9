package camera

import "sync"

// Mock implements Provider for testing.
type Mock struct {
	// CaptureFunc is called when CaptureFrame is invoked.
	// If nil, a small static frame is returned.
	CaptureFunc func() ([]byte, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock camera returning a canned frame.
func NewMock() *Mock {
	return &Mock{}
}

// CaptureFrame implements Provider.
func (m *Mock) CaptureFrame() ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc()
	}
	return []byte("\xff\xd8\xff\xe0fake-jpeg"), nil
}

// Calls returns how many times CaptureFrame was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
