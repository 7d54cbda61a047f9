package deterrent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldguard/go-fieldguard/internal/httpc"
)

// Client abstracts the actuator collaborator. Set is idempotent and
// must tolerate being called when the pin is already in the requested
// state.
type Client interface {
	Set(ctx context.Context, id ActuatorID, on bool) error
}

// HTTPClient drives actuators through the GPIO REST server running on
// the Pi: POST /gpio/pin {"pin": N, "state": true|false}.
type HTTPClient struct {
	baseURL string
	pins    map[ActuatorID]int
	http    *http.Client
}

// NewHTTPClient creates an actuator client for the GPIO server.
// pins maps each actuator to its BCM pin number.
func NewHTTPClient(baseURL string, pins map[ActuatorID]int) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		pins:    pins,
		// Short timeout: a wedged GPIO server must not hold a deterrent
		// release hostage.
		http: httpc.NewClient(2 * time.Second),
	}
}

type pinRequest struct {
	Pin   int  `json:"pin"`
	State bool `json:"state"`
}

// Set implements Client.
func (c *HTTPClient) Set(ctx context.Context, id ActuatorID, on bool) error {
	pin, ok := c.pins[id]
	if !ok {
		return fmt.Errorf("deterrent: no pin configured for %q", id)
	}

	body, err := json.Marshal(pinRequest{Pin: pin, State: on})
	if err != nil {
		return fmt.Errorf("deterrent: marshal pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/gpio/pin", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deterrent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deterrent: set %s pin %d: %w", id, pin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deterrent: set %s pin %d: status %d", id, pin, resp.StatusCode)
	}
	return nil
}
