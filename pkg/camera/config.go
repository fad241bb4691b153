// Package camera provides the capture session for findit: device access,
// still capture, continuous preview and runtime-configurable settings.
package camera

import "time"

// Config holds all capture configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device selects the capture source: a video device index ("0")
	// for webcams or a file path for FileDevice.
	Device string `json:"device"`

	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100

	// PreviewInterval is the delay between preview frames.
	// Zero disables the preview loop.
	PreviewInterval time.Duration `json:"preview_interval"`
}

// Limits for validation.
const (
	MaxWidth  = 3840
	MaxHeight = 2160
	MinWidth  = 160
	MinHeight = 120
)

// DefaultConfig returns the 1080p still configuration with a ~5 FPS preview.
func DefaultConfig() Config {
	return Config{
		Device:          "0",
		Width:           1920,
		Height:          1080,
		Framerate:       30,
		Quality:         85,
		PreviewInterval: 200 * time.Millisecond,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.PreviewInterval < 0 {
		errors = append(errors, "preview_interval must not be negative")
	}

	return errors
}
