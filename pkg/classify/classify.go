// Package classify defines the image classification capability used by
// findit and the ranking helpers shared by its backends.
//
// A Classifier turns encoded image bytes into an ordered list of labelled
// confidence scores, highest first. Backends live in subpackages (onnx) so
// callers and tests can depend on the interface without native libraries.
package classify

import (
	"context"
	"fmt"
)

// Classification is one labelled confidence score.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // 0-1
}

// String formats the pair for logs.
func (c Classification) String() string {
	return fmt.Sprintf("%s (%.2f)", c.Label, c.Confidence)
}

// Classifier labels encoded images.
type Classifier interface {
	// Classify returns classifications ordered by descending confidence.
	Classify(ctx context.Context, image []byte) ([]Classification, error)

	// Close releases any loaded model.
	Close() error
}

// Top returns the first classification, or false if there is none.
func Top(results []Classification) (Classification, bool) {
	if len(results) == 0 {
		return Classification{}, false
	}
	return results[0], true
}
