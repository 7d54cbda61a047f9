package camera

import (
	"fmt"
	"log/slog"
	"sync"
)

// Controller pushes one sensor register to the camera. Implemented by
// ESP32's control endpoint client.
type Controller interface {
	SetControl(name string, value int) error
}

// Manager holds the current camera settings and applies updates to the
// sensor. Safe for concurrent use; the dashboard mutates settings while
// the capture path reads frames.
type Manager struct {
	cam    Controller
	logger *slog.Logger

	mu       sync.RWMutex
	settings Settings
}

// NewManager creates a manager seeded with the default settings. The
// defaults are not pushed until the first Apply.
func NewManager(cam Controller, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cam:      cam,
		logger:   logger.With("component", "camera"),
		settings: DefaultSettings(),
	}
}

// Settings returns the current configuration.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Apply pushes every control register and retains the settings on
// success. A failed register aborts the rest; the retained settings
// then still describe the last fully applied state.
func (m *Manager) Apply(s Settings) error {
	for _, c := range s.controls() {
		if err := m.cam.SetControl(c.name, c.value); err != nil {
			return fmt.Errorf("camera: apply %s=%d: %w", c.name, c.value, err)
		}
	}
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	m.logger.Info("camera settings applied",
		"framesize", s.FrameSize, "quality", s.Quality, "lamp", s.LampLevel)
	return nil
}

// ApplyPreset applies a named settings bundle.
func (m *Manager) ApplyPreset(name string) error {
	s, ok := Preset(name)
	if !ok {
		return fmt.Errorf("camera: unknown preset %q", name)
	}
	return m.Apply(s)
}
