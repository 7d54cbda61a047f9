package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fieldguard/go-fieldguard/internal/httpc"
)

// Client is the HTTP classifier provider.
// POST {baseURL}/api/detect with a JPEG body returns
// {"label": "...", "confidence": 0.92}.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a classifier client. The timeout bounds one attempt;
// retries across attempts belong to the capture client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpc.NewClient(timeout),
		logger:  logger.With("component", "classify.client"),
	}
}

type detectResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify implements Provider.
func (c *Client) Classify(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dr.Confidence < 0 || dr.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedResponse, dr.Confidence)
	}

	latency := time.Since(start)
	c.logger.Debug("classified frame",
		"label", dr.Label, "confidence", dr.Confidence, "latency", latency)

	return &Result{
		Label:      strings.ToLower(dr.Label),
		Confidence: dr.Confidence,
		LatencyMs:  latency.Milliseconds(),
	}, nil
}
