package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns one capture device: it configures it, runs the preview
// loop and takes stills on demand.
type Session struct {
	device  Device
	manager *Manager
	logger  *slog.Logger

	// deviceMu serializes device access between preview and stills.
	deviceMu   sync.Mutex
	configured bool
	active     Config

	mu     sync.RWMutex
	flash  FlashMode
	latest []byte

	previewCancel context.CancelFunc
	previewDone   chan struct{}

	// OnFrame receives each preview frame (JPEG).
	OnFrame func(jpeg []byte)
}

// NewSession creates a session for device. Config changes made through
// manager are applied by reopening the device.
func NewSession(device Device, manager *Manager, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		device:  device,
		manager: manager,
		logger:  logger.With("component", "camera.session"),
	}
	manager.OnConfigChange = s.reconfigure
	return s
}

// Configure acquires the device and starts the preview loop.
func (s *Session) Configure(ctx context.Context) error {
	cfg := s.manager.GetConfig()

	s.deviceMu.Lock()
	err := s.device.Open(ctx, cfg)
	s.configured = err == nil
	if err == nil {
		s.active = cfg
	}
	s.deviceMu.Unlock()

	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		s.logger.Error("capture device unavailable", "device", cfg.Device, "error", err)
		return err
	}

	s.logger.Info("capture device ready",
		"device", cfg.Device,
		"width", cfg.Width,
		"height", cfg.Height,
	)

	s.startPreview(cfg.PreviewInterval)
	return nil
}

// SetFlash stores the flash mode for the next still capture.
func (s *Session) SetFlash(mode FlashMode) {
	s.mu.Lock()
	s.flash = mode
	s.mu.Unlock()
}

// Flash returns the stored flash mode.
func (s *Session) Flash() FlashMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flash
}

// CaptureStill takes one still with the current flash mode.
func (s *Session) CaptureStill(ctx context.Context) (*Photo, error) {
	flash := s.Flash()
	quality := s.manager.GetConfig().Quality

	s.deviceMu.Lock()
	if !s.configured {
		s.deviceMu.Unlock()
		return nil, ErrNotConfigured
	}
	data, err := s.device.Capture(ctx, Settings{Flash: flash, Quality: quality})
	s.deviceMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("capture still: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	photo := &Photo{
		ID:         uuid.NewString(),
		Data:       data,
		Flash:      flash,
		CapturedAt: time.Now(),
	}

	s.logger.Debug("still captured", "photo_id", photo.ID, "bytes", len(data), "flash", flash)
	return photo, nil
}

// LatestFrame returns the most recent preview frame, or nil.
func (s *Session) LatestFrame() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Close stops the preview loop and releases the device.
func (s *Session) Close() error {
	s.stopPreview()

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()
	if !s.configured {
		return nil
	}
	s.configured = false
	return s.device.Close()
}

// reconfigure reopens the device with cfg. If the device rejects cfg the
// previous config is reopened so captures keep working.
func (s *Session) reconfigure(cfg Config) error {
	s.stopPreview()

	s.deviceMu.Lock()
	wasConfigured := s.configured
	prev := s.active
	if wasConfigured {
		s.device.Close()
	}
	err := s.device.Open(context.Background(), cfg)
	if err == nil {
		s.configured = true
		s.active = cfg
		s.deviceMu.Unlock()

		s.logger.Info("capture device reconfigured", "width", cfg.Width, "height", cfg.Height)
		s.startPreview(cfg.PreviewInterval)
		return nil
	}

	restored := false
	if wasConfigured {
		if rerr := s.device.Open(context.Background(), prev); rerr != nil {
			s.logger.Error("restore previous camera config", "error", rerr)
		} else {
			restored = true
		}
	}
	s.configured = restored
	s.deviceMu.Unlock()

	s.logger.Error("reconfigure failed", "error", err, "restored", restored)
	if restored {
		s.startPreview(prev.PreviewInterval)
	}
	if !errors.Is(err, ErrDeviceUnavailable) {
		err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return err
}

func (s *Session) startPreview(interval time.Duration) {
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.previewCancel = cancel
	s.previewDone = done
	s.mu.Unlock()

	go s.previewLoop(ctx, interval, done)
}

func (s *Session) stopPreview() {
	s.mu.Lock()
	cancel, done := s.previewCancel, s.previewDone
	s.previewCancel, s.previewDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Session) previewLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.deviceMu.Lock()
		var (
			frame []byte
			err   error
		)
		if s.configured {
			frame, err = s.device.Capture(ctx, Settings{Quality: 70, Preview: true})
		}
		s.deviceMu.Unlock()

		if err != nil {
			s.logger.Debug("preview frame failed", "error", err)
			continue
		}
		if len(frame) == 0 {
			continue
		}

		s.mu.Lock()
		s.latest = frame
		onFrame := s.OnFrame
		s.mu.Unlock()

		if onFrame != nil {
			onFrame(frame)
		}
	}
}
