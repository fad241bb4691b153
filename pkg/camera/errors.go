package camera

import "errors"

// Sentinel errors for capture failures.
var (
	// ErrDeviceUnavailable is returned when no capture device can be opened.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrNotConfigured is returned when capturing before Configure succeeded.
	ErrNotConfigured = errors.New("camera: session not configured")

	// ErrEmptyFrame is returned when the device produced no image data.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrInvalidConfig is returned when a config fails validation.
	ErrInvalidConfig = errors.New("camera: invalid config")
)
