package camera

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fieldguard/go-fieldguard/internal/httpc"
)

// Sanity bounds on a returned frame. The ESP32-CAM occasionally
// returns a truncated buffer mid-exposure; treat those as no frame.
const (
	minFrameBytes = 1024
	maxFrameBytes = 2 << 20
)

// ESP32 captures single JPEG frames from an ESP32-CAM snapshot
// endpoint (GET /capture) and tunes the sensor through its control
// endpoint (GET /control?var=...&val=...).
type ESP32 struct {
	url        string
	controlURL string
	http       *http.Client
}

// NewESP32 creates a snapshot client for the given capture URL.
func NewESP32(captureURL string, timeout time.Duration) *ESP32 {
	c := &ESP32{
		url:  captureURL,
		http: httpc.NewClient(timeout),
	}
	if u, err := url.Parse(captureURL); err == nil {
		u.Path = "/control"
		u.RawQuery = ""
		c.controlURL = u.String()
	}
	return c
}

// CaptureFrame fetches one JPEG frame.
// Any transport or framing failure maps to ErrUnavailable; the capture
// client does not distinguish camera failure modes.
func (c *ESP32) CaptureFrame() ([]byte, error) {
	resp, err := c.http.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	frame, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(frame) < minFrameBytes {
		return nil, fmt.Errorf("%w: short frame (%d bytes)", ErrUnavailable, len(frame))
	}
	return frame, nil
}

// SetControl writes one sensor register.
func (c *ESP32) SetControl(name string, value int) error {
	if c.controlURL == "" {
		return fmt.Errorf("camera: no control endpoint for %s", c.url)
	}
	q := url.Values{"var": {name}, "val": {strconv.Itoa(value)}}
	resp, err := c.http.Get(c.controlURL + "?" + q.Encode())
	if err != nil {
		return fmt.Errorf("camera: set %s: %w", name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera: set %s: status %d", name, resp.StatusCode)
	}
	return nil
}
