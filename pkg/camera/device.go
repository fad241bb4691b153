package camera

import (
	"context"
	"time"
)

// Device is a capture source producing JPEG frames.
type Device interface {
	// Open acquires the device with the given configuration.
	Open(ctx context.Context, cfg Config) error

	// Capture grabs one frame and returns it JPEG-encoded.
	Capture(ctx context.Context, settings Settings) ([]byte, error)

	// Close releases the device.
	Close() error
}

// Settings are per-capture parameters.
type Settings struct {
	Flash   FlashMode
	Quality int  // JPEG quality 1-100
	Preview bool // true for preview frames, false for stills
}

// Photo is one captured still. A new capture replaces the previous photo.
type Photo struct {
	ID         string    `json:"id"`
	Data       []byte    `json:"-"`
	Flash      FlashMode `json:"flash"`
	CapturedAt time.Time `json:"captured_at"`
}

// Size returns the encoded size in bytes.
func (p *Photo) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}
