package classify

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3})

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("order not preserved: %v", probs)
	}

	// Large logits must not overflow.
	big := Softmax([]float32{1000, 1000})
	if math.IsNaN(big[0]) || math.Abs(big[0]-0.5) > 1e-9 {
		t.Errorf("got %v, want [0.5 0.5]", big)
	}

	if len(Softmax(nil)) != 0 {
		t.Error("expected empty output")
	}
}

func TestRank(t *testing.T) {
	labels := []string{"banana", "cup", "dog", "cat"}
	scores := []float64{0.1, 0.6, 0.2, 0.1}

	t.Run("descending", func(t *testing.T) {
		got, err := Rank(scores, labels, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"cup", "dog", "banana", "cat"}
		for i, c := range got {
			if c.Label != want[i] {
				t.Errorf("position %d: got %s, want %s", i, c.Label, want[i])
			}
		}
	})

	t.Run("topK", func(t *testing.T) {
		got, _ := Rank(scores, labels, 2)
		if len(got) != 2 || got[0].Label != "cup" {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := Rank(scores, labels[:2], 1)
		if !errors.Is(err, ErrLabelMismatch) {
			t.Errorf("expected ErrLabelMismatch, got %v", err)
		}
	})

	t.Run("clamps out of range", func(t *testing.T) {
		got, _ := Rank([]float64{1.5, math.NaN(), -2}, []string{"a", "b", "c"}, 0)
		if got[0].Confidence != 1 || got[1].Confidence != 0 || got[2].Confidence != 0 {
			t.Errorf("unexpected confidences: %v", got)
		}
	})
}

func TestParseLabels(t *testing.T) {
	input := strings.Join([]string{
		"n07753592 banana",
		"",
		"n03063599 coffee mug",
		"n03147509 cup",
		"tench, Tinca tinca",
		"plain label",
	}, "\n")

	labels, err := ParseLabels(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"banana", "coffee mug", "cup", "tench", "plain label"}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels, want %d: %v", len(labels), len(want), labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d: got %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestParseLabelsEmpty(t *testing.T) {
	if _, err := ParseLabels(strings.NewReader("\n\n")); err == nil {
		t.Error("expected error for empty labels")
	}
}

func TestTop(t *testing.T) {
	if _, ok := Top(nil); ok {
		t.Error("expected no top for empty results")
	}
	top, ok := Top([]Classification{{Label: "cup", Confidence: 0.9}, {Label: "mug", Confidence: 0.05}})
	if !ok || top.Label != "cup" {
		t.Errorf("got %v, %v", top, ok)
	}
}

func TestMock(t *testing.T) {
	m := NewMock(Classification{Label: "cup", Confidence: 0.91})
	got, err := m.Classify(context.Background(), []byte{1, 2})
	if err != nil || len(got) != 1 || got[0].Label != "cup" {
		t.Errorf("got %v, %v", got, err)
	}
	if m.CallCount() != 1 {
		t.Errorf("call count %d", m.CallCount())
	}

	boom := errors.New("boom")
	if _, err := FailingMock(boom).Classify(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}
