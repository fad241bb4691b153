// findit - point the camera at something, tap, and hear what it is.
// Serves a browser UI; captures are classified by a bundled ONNX model and
// the result is read aloud.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/teslashibe/findit/internal/log"
	"github.com/teslashibe/findit/pkg/app"
	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/camera/webcam"
	"github.com/teslashibe/findit/pkg/classify/onnx"
	"github.com/teslashibe/findit/pkg/findit"
)

func main() {
	cfg, preload := parseFlags()
	cfg.LoadEnvConfig()

	log.Init(cfg.LogLevel)
	logger := log.L()

	classifier := onnx.New(onnxConfig(cfg), logger)
	if preload {
		if err := classifier.Load(); err != nil {
			logger.Error("model preload failed", "error", err)
			os.Exit(1)
		}
	}

	a, err := app.New(cfg,
		app.WithDevice(newDevice(cfg.CameraDevice)),
		app.WithClassifier(classifier),
		app.WithLogger(logger),
	)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() (findit.Config, bool) {
	cfg := findit.DefaultConfig()

	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port (FINDIT_PORT)")
	flag.StringVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "Video device index/path, or an image file (CAMERA_DEVICE)")
	flag.StringVar(&cfg.CameraPreset, "preset", cfg.CameraPreset, "Camera preset: default, 720p, legacy, no-preview")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "ONNX classification model (MODEL_PATH)")
	flag.StringVar(&cfg.LabelsPath, "labels", cfg.LabelsPath, "Class labels, one per line (LABELS_PATH)")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Directory with the browser UI")
	flag.StringVar(&cfg.TTSProvider, "tts", cfg.TTSProvider, "TTS provider: espeak, openai, google, or a fallback list like openai,espeak")
	flag.StringVar(&cfg.TTSVoice, "tts-voice", "", "Voice for the TTS provider")
	flag.BoolVar(&cfg.NoAudio, "no-audio", false, "Synthesize speech without playing it")
	flag.BoolVar(&cfg.ReleaseOnError, "release-on-error", cfg.ReleaseOnError, "Unlock the capture button when a capture fails")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	debug := flag.Bool("debug", false, "Shorthand for -log-level=debug")
	preload := flag.Bool("preload", false, "Load the model at startup instead of on first capture")

	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	return cfg, *preload
}

func onnxConfig(cfg findit.Config) onnx.Config {
	oc := onnx.DefaultConfig()
	oc.ModelPath = cfg.ModelPath
	oc.LabelsPath = cfg.LabelsPath
	return oc
}

// newDevice serves an image file as the camera when the device names one.
func newDevice(device string) camera.Device {
	switch strings.ToLower(filepath.Ext(device)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		if info, err := os.Stat(device); err == nil && info.Mode().IsRegular() {
			log.Info("using image file as camera", "path", device)
			return camera.NewFileDevice(device)
		}
	}
	return webcam.New(log.L())
}
