package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common conditions.
var (
	// ErrMalformedResponse is returned when the service replies with a
	// body we cannot decode. Not retryable: the same request would fail
	// the same way.
	ErrMalformedResponse = errors.New("classify: malformed response")

	// ErrUnreachable is returned when the service cannot be reached.
	ErrUnreachable = errors.New("classify: service unreachable")
)

// APIError represents an error response from the classifier service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("classify: API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the request should be retried.
// Rate limiting and server-side errors are transient; client errors
// mean the request itself is wrong.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// IsTransient reports whether err is worth retrying: network-level
// failures, timeouts, and retryable API errors. Malformed responses
// and client-side API errors fail immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Connection refused/reset surface as *net.OpError wrapped in
	// *url.Error; both implement net.Error and are caught above.
	// Anything else (including ErrUnreachable wrapping) is transient
	// by default: the service may simply be restarting.
	return errors.Is(err, ErrUnreachable)
}
