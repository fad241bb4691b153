// Package webcam implements camera.Device on top of OpenCV video capture.
package webcam

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/teslashibe/findit/pkg/camera"
	"gocv.io/x/gocv"
)

// Device captures frames from a local video device or stream URL.
type Device struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	logger *slog.Logger

	warnedFlash bool
}

// New creates an unopened webcam device.
func New(logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{logger: logger.With("component", "camera.webcam")}
}

// Open opens cfg.Device. Numeric values select a device index,
// anything else is passed to OpenCV as a file or stream URL.
func (d *Device) Open(ctx context.Context, cfg camera.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var source interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		source = idx
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", camera.ErrDeviceUnavailable, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: %s not opened", camera.ErrDeviceUnavailable, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	d.vc = vc
	d.frame = gocv.NewMat()
	return nil
}

// Capture reads the next frame and encodes it as JPEG.
func (d *Device) Capture(ctx context.Context, settings camera.Settings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil, camera.ErrNotConfigured
	}

	// OpenCV exposes no flash or torch control for UVC devices.
	if settings.Flash == camera.FlashOn && !settings.Preview && !d.warnedFlash {
		d.logger.Warn("flash requested but not supported by this device")
		d.warnedFlash = true
	}

	if ok := d.vc.Read(&d.frame); !ok || d.frame.Empty() {
		return nil, camera.ErrEmptyFrame
	}

	quality := settings.Quality
	if quality <= 0 {
		quality = 85
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, d.frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// Close releases the capture handle.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	d.frame.Close()
	err := d.vc.Close()
	d.vc = nil
	return err
}

var _ camera.Device = (*Device)(nil)
