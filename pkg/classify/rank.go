package classify

import (
	"fmt"
	"math"
	"sort"
)

// Softmax converts raw logits into probabilities that sum to 1.
func Softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}

	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Rank pairs scores with labels and returns the topK highest, descending.
// Ties keep label order. topK <= 0 returns all.
func Rank(scores []float64, labels []string, topK int) ([]Classification, error) {
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("%w: %d scores, %d labels", ErrLabelMismatch, len(scores), len(labels))
	}

	results := make([]Classification, len(scores))
	for i, s := range scores {
		results[i] = Classification{Label: labels[i], Confidence: clamp01(s)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
