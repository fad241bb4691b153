// Package app wires the findit components together and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/teslashibe/findit/pkg/audio"
	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/classify"
	"github.com/teslashibe/findit/pkg/findit"
	"github.com/teslashibe/findit/pkg/narration"
	"github.com/teslashibe/findit/pkg/tts"
	"github.com/teslashibe/findit/pkg/web"
)

// Option supplies a component instead of the default.
type Option func(*App)

// WithDevice sets the capture device.
func WithDevice(d camera.Device) Option {
	return func(a *App) { a.device = d }
}

// WithClassifier sets the image classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithSpeech sets the TTS provider instead of building one from Config.
func WithSpeech(p tts.Provider) Option {
	return func(a *App) { a.speech = p }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// App is the findit application orchestrator.
type App struct {
	config Config
	logger *slog.Logger

	// Capture
	device  camera.Device
	cameras *camera.Manager
	session *camera.Session

	// Classification
	classifier classify.Classifier

	// Speech
	speech   tts.Provider
	player   *audio.Player
	narrator *narration.Narrator

	// UI
	screen    *findit.Screen
	webServer *web.Server
}

// Config is findit.Config; the alias keeps callers to one import.
type Config = findit.Config

// New creates an application. Environment overrides are applied before
// validation.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.LoadEnvConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.device == nil {
		return nil, errors.New("app: no capture device")
	}
	if a.classifier == nil {
		return nil, errors.New("app: no classifier")
	}
	return a, nil
}

// Init builds every component. ctx bounds capture cycles and provider setup.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	a.logger.Info("initializing findit",
		"camera", a.config.CameraDevice,
		"model", a.config.ModelPath,
		"tts", a.config.TTSProvider,
	)

	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	if err := a.initSpeech(ctx); err != nil {
		return fmt.Errorf("speech init: %w", err)
	}
	a.initScreen(ctx)
	return nil
}

func (a *App) initCamera() error {
	cfg := camera.DefaultConfig()
	if preset := camera.GetPreset(a.config.CameraPreset); preset != nil {
		cfg = *preset
	}
	cfg.Device = a.config.CameraDevice

	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("%w: %v", camera.ErrInvalidConfig, problems)
	}

	a.cameras = camera.NewManager(cfg)
	a.session = camera.NewSession(a.device, a.cameras, a.logger)
	return nil
}

func (a *App) initSpeech(ctx context.Context) error {
	if a.speech == nil {
		var opts []tts.Option
		if a.config.TTSVoice != "" {
			opts = append(opts, tts.WithVoice(a.config.TTSVoice))
		}
		keys := tts.Keys{OpenAI: a.config.OpenAIKey, Google: a.config.GoogleAPIKey}

		provider, err := tts.New(ctx, a.config.TTSProvider, keys, a.logger, opts...)
		if err != nil {
			return err
		}
		a.speech = provider
	}
	a.logger.Info("speech provider ready", "provider", a.speech.Name())

	var player narration.Player
	if !a.config.NoAudio {
		a.player = audio.NewPlayer(a.logger)
		a.player.OnPlaybackStart = func() { a.logger.Debug("speaking") }
		a.player.OnPlaybackEnd = func() { a.logger.Debug("done speaking") }
		player = a.player
	}

	a.narrator = narration.New(a.speech, player, narration.WithLogger(a.logger))
	return nil
}

func (a *App) initScreen(ctx context.Context) {
	a.screen = findit.NewScreen(a.session, a.classifier, a.narrator,
		findit.WithLogger(a.logger),
		findit.WithReleaseOnError(a.config.ReleaseOnError),
		findit.WithOnChange(func(st findit.State) {
			if a.webServer != nil {
				a.webServer.PublishState(st)
			}
		}),
	)
	a.narrator.SetListener(a.screen)

	a.webServer = web.NewServer(a.screen,
		web.WithCameraManager(a.cameras),
		web.WithStaticDir(a.config.StaticDir),
		web.WithLogger(a.logger),
		web.WithCycleContext(ctx),
	)
	a.session.OnFrame = a.webServer.SendPreviewFrame
}

// Run configures the camera and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.config.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	// A missing camera is reported but the UI still comes up.
	if err := a.session.Configure(ctx); err != nil {
		a.logger.Error("camera unavailable", "error", err)
	}

	go a.narrator.Run(ctx)

	a.logger.Info("findit ready", "addr", ln.Addr().String())
	return a.webServer.Serve(ctx, ln)
}

// Screen returns the screen state object.
func (a *App) Screen() *findit.Screen {
	return a.screen
}

// Shutdown releases every component.
func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	if a.narrator != nil {
		a.narrator.Close()
	}
	if a.screen != nil {
		a.screen.Wait()
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("close camera", "error", err)
		}
	}
	if err := a.classifier.Close(); err != nil {
		a.logger.Warn("close classifier", "error", err)
	}
	if a.speech != nil {
		a.speech.Close()
	}
}
