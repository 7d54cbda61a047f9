// Package config provides configuration for the fieldguard daemon.
// Values come from the environment with sensible defaults; a .env file
// next to the binary is loaded first if present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the detection-and-response pipeline.
type Config struct {
	// Sensor
	SensorListen     string        // TCP address the ultrasonic sender connects to
	SampleInterval   time.Duration // how often the sampler polls the sensor
	SensorStaleAfter time.Duration // a reading older than this is a sensor fault
	SmoothingWindow  int           // moving-median window size

	// Proximity thresholds
	DistanceThresholdCM float64
	HysteresisMarginCM  float64
	EnterConfirmCount   int
	ExitConfirmCount    int
	StalenessWindow     time.Duration // continuous sensor fault before forced EXIT

	// Camera
	CameraURL      string
	CaptureTimeout time.Duration

	// Classifier
	ClassifierURL      string
	ClassifyTimeout    time.Duration
	ClassifyMaxRetries int
	ClassifyRetryDelay time.Duration
	ConfirmThreshold   float64
	AnimalClasses      []string

	// Deterrents
	GPIOURL              string
	LightPin             int
	BuzzerPin            int
	PumpPin              int
	LightOffset          time.Duration
	LightDuration        time.Duration
	BuzzerOffset         time.Duration
	BuzzerDuration       time.Duration
	PumpOffset           time.Duration
	PumpDuration         time.Duration
	MaxActuationDuration time.Duration

	// Pipeline
	Cooldown       time.Duration
	RejectCooldown time.Duration

	// Observers
	DashboardPort string
	MQTTBroker    string // empty disables the uplink
	MQTTClientID  string

	// Logging
	LogLevel string
}

// DefaultAnimalClasses is the set of species the deterrents may fire on.
// Matches the detection model's label vocabulary for wildlife.
var DefaultAnimalClasses = []string{
	"bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "rat",
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		SensorListen:     getEnv("SENSOR_LISTEN", ":5000"),
		SampleInterval:   getEnvAsDuration("SAMPLE_INTERVAL", 200*time.Millisecond),
		SensorStaleAfter: getEnvAsDuration("SENSOR_STALE_AFTER", 3*time.Second),
		SmoothingWindow:  getEnvAsInt("SMOOTHING_WINDOW", 3),

		DistanceThresholdCM: getEnvAsFloat("DISTANCE_THRESHOLD_CM", 50),
		HysteresisMarginCM:  getEnvAsFloat("HYSTERESIS_MARGIN_CM", 5),
		EnterConfirmCount:   getEnvAsInt("ENTER_CONFIRM_COUNT", 2),
		ExitConfirmCount:    getEnvAsInt("EXIT_CONFIRM_COUNT", 3),
		StalenessWindow:     getEnvAsDuration("STALENESS_WINDOW", 10*time.Second),

		CameraURL:      getEnv("CAMERA_URL", "http://192.168.1.81/capture"),
		CaptureTimeout: getEnvAsDuration("CAPTURE_TIMEOUT", 2*time.Second),

		ClassifierURL:      getEnv("CLASSIFIER_URL", "http://localhost:9000"),
		ClassifyTimeout:    getEnvAsDuration("CLASSIFY_TIMEOUT", 5*time.Second),
		ClassifyMaxRetries: getEnvAsInt("CLASSIFY_MAX_RETRIES", 3),
		ClassifyRetryDelay: getEnvAsDuration("CLASSIFY_RETRY_DELAY", 200*time.Millisecond),
		ConfirmThreshold:   getEnvAsFloat("CONFIRM_THRESHOLD", 0.8),
		AnimalClasses:      getEnvAsList("ANIMAL_CLASSES", DefaultAnimalClasses),

		GPIOURL:              getEnv("GPIO_URL", "http://192.168.1.218:8000"),
		LightPin:             getEnvAsInt("LIGHT_PIN", 17),
		BuzzerPin:            getEnvAsInt("BUZZER_PIN", 22),
		PumpPin:              getEnvAsInt("PUMP_PIN", 23),
		LightOffset:          getEnvAsDuration("LIGHT_OFFSET", 0),
		LightDuration:        getEnvAsDuration("LIGHT_DURATION", 2*time.Second),
		BuzzerOffset:         getEnvAsDuration("BUZZER_OFFSET", 0),
		BuzzerDuration:       getEnvAsDuration("BUZZER_DURATION", 1*time.Second),
		PumpOffset:           getEnvAsDuration("PUMP_OFFSET", 500*time.Millisecond),
		PumpDuration:         getEnvAsDuration("PUMP_DURATION", 1*time.Second),
		MaxActuationDuration: getEnvAsDuration("MAX_ACTUATION_DURATION", 10*time.Second),

		Cooldown: getEnvAsDuration("COOLDOWN", 15*time.Second),

		DashboardPort: getEnv("DASHBOARD_PORT", "8080"),
		MQTTBroker:    getEnv("MQTT_BROKER", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "fieldguard"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// REJECT keeps the normal cooldown unless overridden, so a confirmed
	// non-target (person, vehicle) does not cause an immediate re-trigger.
	cfg.RejectCooldown = getEnvAsDuration("REJECT_COOLDOWN", cfg.Cooldown)

	return cfg
}

// Validate checks that values required for a running daemon are sane.
func (c *Config) Validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("config: SAMPLE_INTERVAL must be positive")
	}
	if c.EnterConfirmCount < 1 || c.ExitConfirmCount < 1 {
		return fmt.Errorf("config: confirm counts must be at least 1")
	}
	if c.ConfirmThreshold < 0 || c.ConfirmThreshold > 1 {
		return fmt.Errorf("config: CONFIRM_THRESHOLD must be in [0,1]")
	}
	if c.ClassifierURL == "" {
		return fmt.Errorf("config: CLASSIFIER_URL is required")
	}
	if c.MaxActuationDuration <= 0 {
		return fmt.Errorf("config: MAX_ACTUATION_DURATION must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
