package findit

import (
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.ReleaseOnError {
		t.Error("ReleaseOnError should default to true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "Port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "Port"},
		{"no device", func(c *Config) { c.CameraDevice = "" }, "CameraDevice"},
		{"unknown preset", func(c *Config) { c.CameraPreset = "8k" }, "CameraPreset"},
		{"no model", func(c *Config) { c.ModelPath = "" }, "ModelPath"},
		{"no provider", func(c *Config) { c.TTSProvider = "" }, "TTSProvider"},
		{"openai without key", func(c *Config) { c.TTSProvider = "openai,espeak" }, "OpenAIKey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			var cfgErr *ConfigError
			if err := cfg.Validate(); !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigFallbackProviderNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTSProvider = "espeak,openai"
	if err := cfg.Validate(); err != nil {
		t.Errorf("fallback provider should not require a key: %v", err)
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("FINDIT_PORT", "9090")
	t.Setenv("CAMERA_DEVICE", "testdata/cup.jpg")
	t.Setenv("TTS_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FINDIT_RELEASE_ON_ERROR", "false")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.Port != "9090" || cfg.CameraDevice != "testdata/cup.jpg" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.TTSProvider != "openai" || cfg.OpenAIKey != "sk-test" {
		t.Errorf("tts env not applied: %+v", cfg)
	}
	if cfg.ReleaseOnError {
		t.Error("FINDIT_RELEASE_ON_ERROR=false should disable release")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEnvConfigKeepsFlags(t *testing.T) {
	t.Setenv("FINDIT_PORT", "9090")

	cfg := DefaultConfig()
	cfg.Port = "7000"
	cfg.LoadEnvConfig()

	if cfg.Port != "7000" {
		t.Errorf("explicit flag value overridden: %s", cfg.Port)
	}
}
