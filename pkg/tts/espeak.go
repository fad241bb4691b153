package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const providerEspeak = "espeak"

// Espeak implements Provider with the local espeak-ng engine.
// It needs no network access and writes WAV to stdout.
type Espeak struct {
	config *Config
	logger *slog.Logger
}

// NewEspeak creates a local espeak-ng provider.
// It fails if the binary cannot be found on PATH.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.Binary = "espeak-ng"
	cfg.VoiceID = "en-us"
	cfg.Apply(opts...)

	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return nil, WrapError(providerEspeak, fmt.Errorf("%s not found: %w", cfg.Binary, err))
	}

	return &Espeak{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}, nil
}

// Name returns "espeak".
func (e *Espeak) Name() string {
	return providerEspeak
}

// Synthesize runs espeak-ng and returns the WAV it produces.
func (e *Espeak) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, WrapError(providerEspeak, ErrEmptyText)
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	start := time.Now()

	args := []string{"--stdout", "-v", e.config.VoiceID}
	if e.config.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(e.config.Speed))
	}
	// "--" keeps text starting with "-" from being read as a flag.
	args = append(args, "--", text)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, WrapError(providerEspeak, fmt.Errorf("run: %w: %s", err, strings.TrimSpace(stderr.String())))
	}

	audio := stdout.Bytes()
	if len(audio) == 0 {
		return nil, WrapError(providerEspeak, fmt.Errorf("no audio produced"))
	}

	latency := time.Since(start).Milliseconds()
	e.logger.Debug("synthesized audio", "chars", len(text), "bytes", len(audio), "latency_ms", latency)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: 22050,
			Channels:   1,
			BitDepth:   16,
		},
		Duration:  WAVDuration(audio),
		CharCount: len(text),
		LatencyMs: latency,
		Provider:  providerEspeak,
	}, nil
}

// Close is a no-op.
func (e *Espeak) Close() error {
	return nil
}

var _ Provider = (*Espeak)(nil)
