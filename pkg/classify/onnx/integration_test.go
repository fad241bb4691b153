//go:build integration

package onnx

import (
	"context"
	"os"
	"testing"
)

// TestClassifyIntegration runs the real model over a sample photo.
// Run with: FINDIT_SAMPLE=photo.jpg go test -tags=integration ./pkg/classify/onnx/...
func TestClassifyIntegration(t *testing.T) {
	sample := os.Getenv("FINDIT_SAMPLE")
	if sample == "" {
		t.Skip("FINDIT_SAMPLE not set")
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		t.Skipf("model not available: %v", err)
	}

	data, err := os.ReadFile(sample)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	c := New(cfg, nil)
	defer c.Close()

	results, err := c.Classify(context.Background(), data)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(results) == 0 || len(results) > cfg.TopK {
		t.Fatalf("unexpected result count %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Confidence > results[i-1].Confidence {
			t.Errorf("results not descending at %d: %v", i, results)
		}
	}
	t.Logf("top: %s", results[0])
}
