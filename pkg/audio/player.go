// Package audio plays synthesized speech on the local sound device.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/teslashibe/findit/pkg/tts"
)

var (
	// ErrCanceled is returned by Play when Cancel interrupts playback.
	ErrCanceled = errors.New("audio: playback canceled")

	// ErrUnsupportedEncoding is returned when no command plays an encoding.
	ErrUnsupportedEncoding = errors.New("audio: unsupported encoding")
)

// Player pipes audio into a local playback command and blocks until it ends.
type Player struct {
	commands map[tts.Encoding][]string
	logger   *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	canceled bool

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()
}

// NewPlayer creates a player using aplay for WAV/PCM and mpg123 for MP3.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		commands: map[tts.Encoding][]string{
			tts.EncodingWAV: {"aplay", "-q", "-"},
			tts.EncodingMP3: {"mpg123", "-q", "-"},
		},
		logger: logger.With("component", "audio.player"),
	}
}

// SetCommand overrides the playback command for an encoding. The audio is
// written to the command's stdin.
func (p *Player) SetCommand(encoding tts.Encoding, argv ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands[encoding] = argv
}

// Command returns the argv used to play format.
func (p *Player) Command(format tts.AudioFormat) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if argv, ok := p.commands[format.Encoding]; ok && len(argv) > 0 {
		return argv, nil
	}

	// Raw PCM gets an aplay invocation describing the sample layout.
	if enc := string(format.Encoding); strings.HasPrefix(enc, "pcm_") {
		rate := format.SampleRate
		if rate == 0 {
			rate, _ = strconv.Atoi(strings.TrimPrefix(enc, "pcm_"))
		}
		channels := format.Channels
		if channels == 0 {
			channels = 1
		}
		if rate > 0 {
			return []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE",
				"-r", strconv.Itoa(rate), "-c", strconv.Itoa(channels), "-"}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, format.Encoding)
}

// Play plays result and returns when playback has finished.
func (p *Player) Play(ctx context.Context, result *tts.AudioResult) error {
	if result == nil || len(result.Audio) == 0 {
		return nil
	}

	argv, err := p.Command(result.Format)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(result.Audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.mu.Lock()
	if p.cmd != nil {
		p.mu.Unlock()
		return fmt.Errorf("audio: already playing")
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	p.cmd = cmd
	p.canceled = false
	p.mu.Unlock()

	p.logger.Debug("playback started", "encoding", result.Format.Encoding, "bytes", len(result.Audio))
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}

	waitErr := cmd.Wait()

	p.mu.Lock()
	canceled := p.canceled
	p.cmd = nil
	p.mu.Unlock()

	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}

	switch {
	case canceled:
		return ErrCanceled
	case ctx.Err() != nil:
		return ctx.Err()
	case waitErr != nil:
		return fmt.Errorf("%s: %w: %s", argv[0], waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Cancel stops any current playback immediately.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	p.canceled = true
	if err := p.cmd.Process.Kill(); err != nil {
		p.logger.Warn("kill playback", "error", err)
	}
}

// IsPlaying returns whether audio is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}
