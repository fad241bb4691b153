// Package tts provides a unified interface for text-to-speech providers.
//
// Backends include a local espeak-ng provider (no network, the default),
// OpenAI speech and Google Cloud Text-to-Speech. All providers implement
// Provider, and Chain falls back from one to the next.
//
// Example usage:
//
//	provider, _ := tts.NewEspeak(tts.WithVoice("en-us"))
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "You found a cup")
//	// result.Audio holds a complete WAV file
package tts

import (
	"context"
	"encoding/binary"
	"time"
)

// Provider converts text to audio.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio data.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated playback duration, zero if unknown.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis time in milliseconds.
	LatencyMs int64

	// Provider names the backend that produced the audio.
	Provider string
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// EncodingWAV is a RIFF/WAVE container, usually PCM16.
	EncodingWAV Encoding = "wav"

	// EncodingPCM24 is headerless 24kHz mono PCM16.
	EncodingPCM24 Encoding = "pcm_24000"

	// EncodingMP3 is MPEG layer 3.
	EncodingMP3 Encoding = "mp3_44100_128"
)

// WAVDuration reads the playback duration from a canonical WAV header.
// It returns zero when the header cannot be parsed.
func WAVDuration(data []byte) time.Duration {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0
	}

	byteRate := binary.LittleEndian.Uint32(data[28:32])
	if byteRate == 0 {
		return 0
	}

	// Walk chunks to find "data"; espeak writes a 0xffffffff size when
	// streaming to stdout, so fall back to the remaining length.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8
		if id == "data" {
			remaining := uint32(len(data) - body)
			if size > remaining {
				size = remaining
			}
			return time.Duration(float64(size) / float64(byteRate) * float64(time.Second))
		}
		offset = body + int(size)
		if size%2 == 1 {
			offset++
		}
	}
	return 0
}
