package findit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/findit/internal/config"
	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/tts"
)

// Config holds all configuration for the findit application.
// Flag parsing is done in cmd/findit/main.go; this struct is data only.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// CameraDevice is a video device index or path, or an image file that
	// stands in for the camera.
	CameraDevice string
	// CameraPreset names a camera.Presets entry.
	CameraPreset string

	// Classifier model and labels.
	ModelPath  string
	LabelsPath string

	// StaticDir serves the browser UI.
	StaticDir string

	// TTS configuration.
	TTSProvider string // "espeak", "openai", "google", "mock" or a comma list
	TTSVoice    string

	// API keys (typically from environment variables).
	OpenAIKey    string
	GoogleAPIKey string

	// NoAudio synthesizes speech without playing it.
	NoAudio bool

	// ReleaseOnError frees the interaction lock when a capture cycle fails
	// before narration. When false a failed cycle keeps the lock engaged.
	ReleaseOnError bool

	// LogLevel is debug, info, warn or error.
	LogLevel string
}

// DefaultConfig returns sensible defaults for findit configuration.
func DefaultConfig() Config {
	return Config{
		Port:           config.DefaultPort,
		CameraDevice:   "0",
		CameraPreset:   "default",
		ModelPath:      config.DefaultModelPath,
		LabelsPath:     config.DefaultLabelsPath,
		StaticDir:      config.DefaultStaticDir,
		TTSProvider:    config.DefaultTTSProvider,
		ReleaseOnError: true,
		LogLevel:       "info",
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing; only unset fields and defaults are replaced.
func (c *Config) LoadEnvConfig() {
	def := DefaultConfig()

	if c.Port == "" || c.Port == def.Port {
		c.Port = config.Port()
	}
	if c.CameraDevice == "" || c.CameraDevice == def.CameraDevice {
		c.CameraDevice = config.String("CAMERA_DEVICE", def.CameraDevice)
	}
	if c.ModelPath == "" || c.ModelPath == def.ModelPath {
		c.ModelPath = config.ModelPath()
	}
	if c.LabelsPath == "" || c.LabelsPath == def.LabelsPath {
		c.LabelsPath = config.LabelsPath()
	}
	if c.TTSProvider == "" || c.TTSProvider == def.TTSProvider {
		c.TTSProvider = config.String("TTS_PROVIDER", def.TTSProvider)
	}
	if c.TTSVoice == "" {
		c.TTSVoice = config.String("TTS_VOICE", "")
	}
	if c.LogLevel == "" || c.LogLevel == def.LogLevel {
		c.LogLevel = config.String("LOG_LEVEL", def.LogLevel)
	}

	c.OpenAIKey = config.String("OPENAI_API_KEY", c.OpenAIKey)
	c.GoogleAPIKey = config.String("GOOGLE_API_KEY", c.GoogleAPIKey)
	c.ReleaseOnError = config.Bool("FINDIT_RELEASE_ON_ERROR", c.ReleaseOnError)
	c.NoAudio = config.Bool("FINDIT_NO_AUDIO", c.NoAudio)
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("invalid port %q", c.Port)}
	}
	if c.CameraDevice == "" {
		return &ConfigError{Field: "CameraDevice", Message: "camera device is required"}
	}
	if c.CameraPreset != "" && camera.GetPreset(c.CameraPreset) == nil {
		return &ConfigError{Field: "CameraPreset", Message: fmt.Sprintf("unknown camera preset %q", c.CameraPreset)}
	}
	if c.ModelPath == "" {
		return &ConfigError{Field: "ModelPath", Message: "MODEL_PATH is required"}
	}
	if c.TTSProvider == "" {
		return &ConfigError{Field: "TTSProvider", Message: "TTS_PROVIDER is required"}
	}

	// Only the primary provider needs its key up front; later chain members
	// are fallbacks and may be skipped.
	primary := strings.TrimSpace(strings.Split(c.TTSProvider, ",")[0])
	if primary == tts.NameOpenAI && c.OpenAIKey == "" {
		return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for OpenAI TTS"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
