// Package web provides the live dashboard surface: a small REST API
// over the pipeline state plus a websocket event stream backed by the
// broadcast hub.
package web

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/fieldguard/go-fieldguard/pkg/camera"
	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/event"
	"github.com/fieldguard/go-fieldguard/pkg/hub"
	"github.com/fieldguard/go-fieldguard/pkg/pipeline"
)

// recentEvents is how many events the REST ring buffer retains for
// clients that connect after the fact.
const recentEvents = 500

// StatusSource exposes the pipeline state the dashboard reports.
type StatusSource interface {
	Phase() pipeline.Phase
	LastDecision() *classify.Decision
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	port   string
	status StatusSource
	bus    *event.Bus
	cam    *camera.Manager // nil when camera tuning is unavailable
	logger *slog.Logger

	events   []event.Event
	eventsMu sync.RWMutex

	eventHub *hub.Hub
	sub      *event.Subscription
}

// NewServer creates the dashboard server. cam may be nil; the camera
// routes then respond 503.
func NewServer(port string, status StatusSource, bus *event.Bus, cam *camera.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:     port,
		status:   status,
		bus:      bus,
		cam:      cam,
		logger:   logger.With("component", "web"),
		events:   make([]event.Event, 0, recentEvents),
		eventHub: hub.New("events", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "fieldguard dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Get("/camera", s.handleCameraGet)
	api.Post("/camera", s.handleCameraSet)
	api.Post("/camera/preset/:name", s.handleCameraPreset)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the hub, the bus bridge, and the HTTP listener. Blocks.
func (s *Server) Start() error {
	go s.eventHub.Run()

	s.sub = s.bus.Subscribe("dashboard", 512)
	go s.bridge()

	s.logger.Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

// Shutdown stops the listener and detaches from the bus.
func (s *Server) Shutdown() error {
	if s.sub != nil {
		s.sub.Close()
	}
	return s.app.Shutdown()
}

// bridge moves events from the bus into the ring buffer and out to
// websocket clients. Runs until the subscription closes.
func (s *Server) bridge() {
	for ev := range s.sub.Events() {
		s.eventsMu.Lock()
		s.events = append(s.events, ev)
		if len(s.events) > recentEvents {
			s.events = s.events[len(s.events)-recentEvents:]
		}
		s.eventsMu.Unlock()

		frame, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to encode event", "type", ev.Type, "error", err)
			continue
		}
		s.eventHub.Broadcast(frame)
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "running",
		"phase":  s.status.Phase().String(),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := fiber.Map{
		"phase":   s.status.Phase().String(),
		"clients": s.eventHub.ClientCount(),
	}
	if d := s.status.LastDecision(); d != nil {
		resp["last_decision"] = d
	}
	return c.JSON(resp)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

func (s *Server) handleCameraGet(c *fiber.Ctx) error {
	if s.cam == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera tuning unavailable")
	}
	presets := make([]string, 0, len(camera.Presets()))
	for name := range camera.Presets() {
		presets = append(presets, name)
	}
	return c.JSON(fiber.Map{
		"settings": s.cam.Settings(),
		"presets":  presets,
	})
}

func (s *Server) handleCameraSet(c *fiber.Ctx) error {
	if s.cam == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera tuning unavailable")
	}
	var settings camera.Settings
	if err := c.BodyParser(&settings); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := s.cam.Apply(settings); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(s.cam.Settings())
}

func (s *Server) handleCameraPreset(c *fiber.Ctx) error {
	if s.cam == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera tuning unavailable")
	}
	if err := s.cam.ApplyPreset(c.Params("name")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.cam.Settings())
}

// handleEventsWS serves one live event stream client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.eventHub, c)
	client.Run()
}
