// Package findit turns a photo into a spoken identification.
//
// A Screen owns the per-screen state: the flash mode, the interaction lock
// and the four display regions. Each tap runs one capture cycle
// (capture, classify, present, narrate) and the lock stays engaged until
// the narration for that cycle has finished.
package findit

import (
	"fmt"
	"math"

	"github.com/teslashibe/findit/pkg/classify"
)

// ConfidenceThreshold is the lowest top-result confidence that is announced
// as an identification.
const ConfidenceThreshold = 0.5

// Fixed display and speech text.
const (
	UnknownMessage   = "I'm not sure what this is, please try again."
	ConfidenceFormat = "CONFIDENCE: %d%%"
	SpeechFormat     = "You found a %s and I'm %d percent sure."
)

// Outcome is the result category of a capture cycle.
type Outcome string

const (
	OutcomeUnknown    Outcome = "unknown"
	OutcomeIdentified Outcome = "identified"
)

// Presentation is what the screen shows and says for one result.
type Presentation struct {
	Outcome        Outcome `json:"outcome"`
	Identification string  `json:"identification"`
	ConfidenceText string  `json:"confidence_text"`
	Speech         string  `json:"speech"`

	// Top result, zero for an empty result.
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Percent converts a confidence in [0,1] to a rounded whole percentage.
func Percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// Present decides how to show results. Only the first element is consulted.
// An empty result is treated as unknown so the cycle still ends in speech.
func Present(results []classify.Classification) Presentation {
	top, ok := classify.Top(results)
	if !ok {
		return unknown(top)
	}

	// Written as a negated >= so NaN falls into the unknown branch.
	if !(top.Confidence >= ConfidenceThreshold) {
		return unknown(top)
	}

	pct := Percent(top.Confidence)
	return Presentation{
		Outcome:        OutcomeIdentified,
		Identification: top.Label,
		ConfidenceText: fmt.Sprintf(ConfidenceFormat, pct),
		Speech:         fmt.Sprintf(SpeechFormat, top.Label, pct),
		Label:          top.Label,
		Confidence:     top.Confidence,
	}
}

func unknown(top classify.Classification) Presentation {
	return Presentation{
		Outcome:        OutcomeUnknown,
		Identification: UnknownMessage,
		Speech:         UnknownMessage,
		Label:          top.Label,
		Confidence:     top.Confidence,
	}
}
