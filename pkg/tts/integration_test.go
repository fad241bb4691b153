//go:build integration

package tts_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/teslashibe/findit/pkg/tts"
)

// TestOpenAIIntegration tests the real OpenAI speech API.
// Run with: go test -tags=integration -v ./pkg/tts/...
func TestOpenAIIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	p, err := tts.NewOpenAI(tts.WithAPIKey(apiKey))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := p.Synthesize(ctx, "You found a cup and I'm 91 percent sure.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	t.Logf("got %d bytes in %dms", len(result.Audio), result.LatencyMs)
}

// TestEspeakIntegration runs the local engine if installed.
func TestEspeakIntegration(t *testing.T) {
	p, err := tts.NewEspeak()
	if err != nil {
		t.Skipf("espeak-ng not available: %v", err)
	}

	result, err := p.Synthesize(context.Background(), "I'm not sure what this is, please try again.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if result.Duration <= 0 {
		t.Errorf("expected a positive duration, got %v", result.Duration)
	}
}
