// fieldguard is the edge daemon: it watches the ultrasonic perimeter
// sensor, confirms intrusions through the remote classifier, fires the
// deterrents on confirmed wildlife, and streams every step to the
// dashboard.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldguard/go-fieldguard/internal/config"
	"github.com/fieldguard/go-fieldguard/internal/log"
	"github.com/fieldguard/go-fieldguard/pkg/camera"
	"github.com/fieldguard/go-fieldguard/pkg/capture"
	"github.com/fieldguard/go-fieldguard/pkg/classify"
	"github.com/fieldguard/go-fieldguard/pkg/deterrent"
	"github.com/fieldguard/go-fieldguard/pkg/distance"
	"github.com/fieldguard/go-fieldguard/pkg/event"
	"github.com/fieldguard/go-fieldguard/pkg/pipeline"
	"github.com/fieldguard/go-fieldguard/pkg/proximity"
	"github.com/fieldguard/go-fieldguard/pkg/uplink"
	"github.com/fieldguard/go-fieldguard/pkg/web"
)

// shutdownGrace bounds the teardown: cycle unwind plus actuator release.
const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()
	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	bus := event.NewBus(log.L())

	// Sensing
	sensor := distance.NewTCPSensor(cfg.SensorListen, cfg.SensorStaleAfter, log.L())
	if err := sensor.Listen(); err != nil {
		log.Error("sensor listener failed", "error", err)
		os.Exit(1)
	}
	sampler := distance.NewSampler(sensor, cfg.SampleInterval, cfg.SmoothingWindow, log.L())
	monitor := proximity.NewMonitor(proximity.Config{
		ThresholdCM:       cfg.DistanceThresholdCM,
		HysteresisMargin:  cfg.HysteresisMarginCM,
		EnterConfirmCount: cfg.EnterConfirmCount,
		ExitConfirmCount:  cfg.ExitConfirmCount,
		StalenessWindow:   cfg.StalenessWindow,
	})

	// Capture & classification
	cam := camera.NewESP32(cfg.CameraURL, cfg.CaptureTimeout)
	camMgr := camera.NewManager(cam, log.L())
	classifier := classify.NewClient(cfg.ClassifierURL, cfg.ClassifyTimeout, log.L())
	gate := classify.NewGate(cfg.ConfirmThreshold, cfg.AnimalClasses)
	captureClient := capture.NewClient(cam, classifier, gate, bus, capture.Config{
		CaptureTimeout: cfg.CaptureTimeout,
		MaxRetries:     cfg.ClassifyMaxRetries,
		RetryDelay:     cfg.ClassifyRetryDelay,
		MaxRetryDelay:  2 * time.Second,
	}, log.L())

	// Deterrents
	actuators := deterrent.NewHTTPClient(cfg.GPIOURL, map[deterrent.ActuatorID]int{
		deterrent.Light:  cfg.LightPin,
		deterrent.Buzzer: cfg.BuzzerPin,
		deterrent.Pump:   cfg.PumpPin,
	})
	controller := deterrent.NewController(actuators,
		[]deterrent.ActuatorID{deterrent.Light, deterrent.Buzzer, deterrent.Pump},
		cfg.MaxActuationDuration, bus, log.L())

	orch := pipeline.New(captureClient, controller, bus, pipeline.Config{
		Plan: deterrent.Plan{
			{Actuator: deterrent.Light, StartOffset: cfg.LightOffset, Duration: cfg.LightDuration},
			{Actuator: deterrent.Buzzer, StartOffset: cfg.BuzzerOffset, Duration: cfg.BuzzerDuration},
			{Actuator: deterrent.Pump, StartOffset: cfg.PumpOffset, Duration: cfg.PumpDuration},
		},
		Cooldown:       cfg.Cooldown,
		RejectCooldown: cfg.RejectCooldown,
	}, log.L())

	// Observers
	server := web.NewServer(cfg.DashboardPort, orch, bus, camMgr, log.L())
	server.StartAsync()

	var up *uplink.MQTT
	if cfg.MQTTBroker != "" {
		var err error
		up, err = uplink.Connect(cfg.MQTTBroker, cfg.MQTTClientID, bus, log.L())
		if err != nil {
			// The uplink is best-effort; the unit keeps protecting the
			// field without it.
			log.Warn("mqtt uplink disabled", "error", err)
		} else {
			go up.Run()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sensor.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("sensor source stopped", "error", err)
		}
	}()

	samples := make(chan distance.Sample, 1)
	go sampler.Run(ctx, samples)

	log.Info("fieldguard running",
		"sensor", cfg.SensorListen,
		"threshold_cm", cfg.DistanceThresholdCM,
		"dashboard_port", cfg.DashboardPort)

	// Blocks until shutdown.
	orch.Watch(ctx, samples, monitor)

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Actuator release comes first; everything else can fail safely.
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Error("pipeline shutdown incomplete", "error", err)
	}
	if err := server.Shutdown(); err != nil {
		log.Warn("dashboard shutdown", "error", err)
	}
	if up != nil {
		up.Close()
	}
	bus.Close()
	log.Info("goodbye")
}
