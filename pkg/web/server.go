// Package web serves the findit browser UI, its JSON API and live websockets.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/findit"
	"github.com/teslashibe/findit/pkg/hub"
)

// Screen is the state object the UI drives. *findit.Screen implements it.
type Screen interface {
	State() findit.State
	Tap(ctx context.Context) (uuid.UUID, error)
	ToggleFlash() camera.FlashMode
	LastPhoto() *camera.Photo
}

// Option configures a Server.
type Option func(*Server)

// WithStaticDir serves the UI from dir. An empty dir disables static files.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCameraManager exposes camera configuration at /api/camera.
func WithCameraManager(m *camera.Manager) Option {
	return func(s *Server) { s.cameras = m }
}

// WithCycleContext sets the context capture cycles run under. Cycles
// outlive the HTTP request that starts them.
func WithCycleContext(ctx context.Context) Option {
	return func(s *Server) { s.cycleCtx = ctx }
}

// Server is the findit web server
type Server struct {
	app       *fiber.App
	screen    Screen
	cameras   *camera.Manager
	logger    *slog.Logger
	staticDir string
	cycleCtx  context.Context

	// Hubs for websocket broadcast
	stateHub   *hub.Hub
	previewHub *hub.Hub
}

// NewServer creates the web server and registers all routes.
func NewServer(screen Screen, opts ...Option) *Server {
	s := &Server{
		screen:   screen,
		logger:   slog.Default(),
		cycleCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web.server")
	s.stateHub = hub.New("state", s.logger)
	s.previewHub = hub.New("preview", s.logger)

	// New state clients see the current screen before any update.
	s.stateHub.SetWelcome(func() []hub.Message {
		msg, err := stateMessage(s.screen.State())
		if err != nil {
			return nil
		}
		return []hub.Message{msg}
	})

	app := fiber.New(fiber.Config{
		AppName:               "findit",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: io.Discard,
		Done: func(c *fiber.Ctx, logString []byte) {
			s.logger.Debug("request",
				"method", c.Method(),
				"path", c.Path(),
				"status", c.Response().StatusCode(),
			)
		},
	}))

	// CORS for local development
	app.Use(cors.New())

	app.Get("/healthz", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/capture", s.handleCapture)
	api.Post("/flash", s.handleFlash)
	api.Get("/photo", s.handlePhoto)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	// Static files
	if s.staticDir != "" {
		app.Static("/", s.staticDir)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the hubs and serves HTTP on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.stateHub.Run(ctx)
	go s.previewHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	s.logger.Info("web server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownErr := s.app.ShutdownWithTimeout(5 * time.Second)
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return shutdownErr
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// PublishState broadcasts a screen snapshot to state clients.
func (s *Server) PublishState(st findit.State) {
	msg, err := stateMessage(st)
	if err != nil {
		s.logger.Warn("encode state", "error", err)
		return
	}
	s.stateHub.Broadcast(msg)
}

// SendPreviewFrame sends a JPEG preview frame to preview clients.
func (s *Server) SendPreviewFrame(jpegData []byte) {
	if s.previewHub.ClientCount() == 0 {
		return
	}
	s.previewHub.BroadcastBinary(jpegData)
}

// StateHub returns the state hub for external use
func (s *Server) StateHub() *hub.Hub {
	return s.stateHub
}

// PreviewHub returns the preview hub for external use
func (s *Server) PreviewHub() *hub.Hub {
	return s.previewHub
}
