package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/findit/pkg/preview"
)

// FileDevice serves a still image file as a camera.
// JPEG, PNG, BMP and WebP files are accepted; frames are re-encoded as JPEG
// and scaled to fit the configured resolution.
type FileDevice struct {
	path string

	mu    sync.Mutex
	frame []byte
	cfg   Config
}

// NewFileDevice creates a device that reads the image at path on Open.
func NewFileDevice(path string) *FileDevice {
	return &FileDevice{path: path}
}

// Open reads and decodes the image file.
func (d *FileDevice) Open(ctx context.Context, cfg Config) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	img, err := preview.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDeviceUnavailable, d.path, err)
	}

	b := img.Bounds()
	if b.Dx() > cfg.Width || b.Dy() > cfg.Height {
		img = imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	d.mu.Lock()
	d.frame = buf.Bytes()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

// Capture returns a copy of the decoded frame. Flash has no effect.
func (d *FileDevice) Capture(ctx context.Context, settings Settings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil {
		return nil, ErrNotConfigured
	}
	out := make([]byte, len(d.frame))
	copy(out, d.frame)
	return out, nil
}

// Close forgets the frame.
func (d *FileDevice) Close() error {
	d.mu.Lock()
	d.frame = nil
	d.mu.Unlock()
	return nil
}

var _ Device = (*FileDevice)(nil)
