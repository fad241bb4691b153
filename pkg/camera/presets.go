package camera

// Preset names for common configurations
const (
	PresetDefault   = "default"
	PresetLegacy    = "legacy"
	Preset720p      = "720p"
	PresetNoPreview = "no-preview"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:   DefaultConfig(),
		PresetLegacy:    LegacyConfig(),
		Preset720p:      HD720Config(),
		PresetNoPreview: NoPreviewConfig(),
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LegacyConfig returns a 640x480 configuration for slow machines.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// HD720Config returns 720p HD configuration.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// NoPreviewConfig disables the continuous preview loop.
func NoPreviewConfig() Config {
	cfg := DefaultConfig()
	cfg.PreviewInterval = 0
	return cfg
}
