// Package camera provides frame capture from the field camera.
package camera

import "errors"

// ErrUnavailable is returned when no frame can be obtained from the
// camera collaborator within the capture timeout.
var ErrUnavailable = errors.New("camera: capture unavailable")

// Provider interface for camera access.
type Provider interface {
	CaptureFrame() ([]byte, error) // Returns JPEG image data
}
