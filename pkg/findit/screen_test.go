package findit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/classify"
	"github.com/teslashibe/findit/pkg/narration"
	"github.com/teslashibe/findit/pkg/tts"
)

type fakeCapturer struct {
	mu     sync.Mutex
	flash  camera.FlashMode
	shots  []camera.FlashMode
	err    error
	photos int
}

func (c *fakeCapturer) SetFlash(mode camera.FlashMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flash = mode
}

func (c *fakeCapturer) CaptureStill(ctx context.Context) (*camera.Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.shots = append(c.shots, c.flash)
	c.photos++
	return &camera.Photo{
		ID:         uuid.NewString(),
		Data:       []byte{0xff, 0xd8, 0xff},
		Flash:      c.flash,
		CapturedAt: time.Now(),
	}, nil
}

// fakeNarrator records utterances; the test decides when speech finishes.
type fakeNarrator struct {
	mu     sync.Mutex
	spoken []narration.Utterance
	err    error
	queued chan narration.Utterance
}

func newFakeNarrator() *fakeNarrator {
	return &fakeNarrator{queued: make(chan narration.Utterance, 8)}
}

func (n *fakeNarrator) Speak(cycleID uuid.UUID, text string) (narration.Utterance, error) {
	u := narration.Utterance{ID: uuid.New(), CycleID: cycleID, Text: text, QueuedAt: time.Now()}
	if n.err != nil {
		return u, n.err
	}
	n.mu.Lock()
	n.spoken = append(n.spoken, u)
	n.mu.Unlock()
	n.queued <- u
	return u, nil
}

func (n *fakeNarrator) next(t *testing.T) narration.Utterance {
	t.Helper()
	select {
	case u := <-n.queued:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for narration")
		return narration.Utterance{}
	}
}

func newTestScreen(cl classify.Classifier, opts ...ScreenOption) (*Screen, *fakeCapturer, *fakeNarrator) {
	capturer := &fakeCapturer{}
	narrator := newFakeNarrator()
	return NewScreen(capturer, cl, narrator, opts...), capturer, narrator
}

func TestToggleFlash(t *testing.T) {
	s, _, _ := newTestScreen(classify.NewMock())

	if s.Flash() != camera.FlashOff {
		t.Fatal("flash should start off")
	}
	if mode := s.ToggleFlash(); mode != camera.FlashOn || mode.Label() != "FLASH ON" {
		t.Errorf("first toggle: %v %q", mode, mode.Label())
	}
	if mode := s.ToggleFlash(); mode != camera.FlashOff || mode.Label() != "FLASH OFF" {
		t.Errorf("second toggle: %v %q", mode, mode.Label())
	}
	if got := s.State().FlashLabel; got != "FLASH OFF" {
		t.Errorf("state label %q", got)
	}
}

func TestTapIdentifiedCycle(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, capturer, narrator := newTestScreen(cl)
	s.ToggleFlash()

	cycle, err := s.Tap(context.Background())
	if err != nil {
		t.Fatalf("tap: %v", err)
	}
	if !s.Busy() {
		t.Fatal("lock must be engaged immediately after tap")
	}

	u := narrator.next(t)
	s.Wait()

	if u.CycleID != cycle {
		t.Errorf("utterance cycle %s, want %s", u.CycleID, cycle)
	}
	if u.Text != "You found a cup and I'm 91 percent sure." {
		t.Errorf("speech %q", u.Text)
	}

	st := s.State()
	if st.Identification != "cup" || st.ConfidenceText != "CONFIDENCE: 91%" {
		t.Errorf("display: %q / %q", st.Identification, st.ConfidenceText)
	}
	if !st.Busy || st.Stage != StageSpeaking {
		t.Errorf("lock must stay engaged until narration finishes: %+v", st)
	}
	if st.Photo == nil {
		t.Error("captured photo should be displayed")
	}
	if len(capturer.shots) != 1 || capturer.shots[0] != camera.FlashOn {
		t.Errorf("capture should use flash on, got %v", capturer.shots)
	}

	s.SpeechFinished(u, nil)
	if s.Busy() {
		t.Error("lock should be released after narration finished")
	}
	if s.State().Stage != StageIdle {
		t.Errorf("stage %q after finish", s.State().Stage)
	}
}

func TestTapUnknownCycle(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "banana", Confidence: 0.42})
	s, _, narrator := newTestScreen(cl)

	s.Tap(context.Background())
	u := narrator.next(t)
	s.Wait()

	st := s.State()
	if st.Identification != UnknownMessage || st.ConfidenceText != "" {
		t.Errorf("display: %q / %q", st.Identification, st.ConfidenceText)
	}
	if u.Text != UnknownMessage {
		t.Errorf("speech %q", u.Text)
	}

	s.SpeechFinished(u, nil)
	if s.Busy() {
		t.Error("unknown path must also release the lock on narration")
	}
}

func TestEmptyResultStillNarrates(t *testing.T) {
	s, _, narrator := newTestScreen(classify.NewMock())

	s.Tap(context.Background())
	u := narrator.next(t)
	s.Wait()

	if u.Text != UnknownMessage {
		t.Errorf("speech %q", u.Text)
	}
	s.SpeechFinished(u, nil)
	if s.Busy() {
		t.Error("lock should be released")
	}
}

func TestTapWhileBusy(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, capturer, narrator := newTestScreen(cl)

	first, err := s.Tap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tap(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second tap: expected ErrBusy, got %v", err)
	}

	u := narrator.next(t)
	s.Wait()
	if capturer.photos != 1 {
		t.Errorf("expected a single capture, got %d", capturer.photos)
	}
	if s.State().CycleID != first.String() {
		t.Error("busy tap must not start a new cycle")
	}
	s.SpeechFinished(u, nil)

	if _, err := s.Tap(context.Background()); err != nil {
		t.Errorf("tap after release: %v", err)
	}
	narrator.next(t)
	s.Wait()
}

func TestConcurrentTaps(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl)

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Tap(context.Background()); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	narrator.next(t)
	s.Wait()

	if started != 1 {
		t.Errorf("expected exactly one cycle, got %d", started)
	}
}

func TestStaleSpeechFinishedIgnored(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl)

	s.Tap(context.Background())
	narrator.next(t)
	s.Wait()

	s.SpeechFinished(narration.Utterance{ID: uuid.New(), CycleID: uuid.New()}, nil)
	if !s.Busy() {
		t.Error("narration from another cycle must not release the lock")
	}
}

func TestSpeechFailureReleasesLock(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl)

	s.Tap(context.Background())
	u := narrator.next(t)
	s.Wait()

	s.SpeechFinished(u, errors.New("speaker unplugged"))
	if s.Busy() {
		t.Error("a finished signal releases the lock even when playback failed")
	}
}

func TestCycleErrors(t *testing.T) {
	errCapture := errors.New("shutter jammed")
	errModel := errors.New("model corrupt")

	tests := []struct {
		name           string
		captureErr     error
		classifier     classify.Classifier
		narrateErr     error
		releaseOnError bool
		wantBusy       bool
		wantStage      Stage
	}{
		{"capture failure released", errCapture, classify.NewMock(), nil, true, false, StageIdle},
		{"capture failure stuck", errCapture, classify.NewMock(), nil, false, true, StageFailed},
		{"inference failure released", nil, classify.FailingMock(errModel), nil, true, false, StageIdle},
		{"inference failure stuck", nil, classify.FailingMock(errModel), nil, false, true, StageFailed},
		{"narration rejected", nil, classify.NewMock(), narration.ErrQueueFull, true, false, StageIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, capturer, narrator := newTestScreen(tt.classifier, WithReleaseOnError(tt.releaseOnError))
			capturer.err = tt.captureErr
			narrator.err = tt.narrateErr

			s.Tap(context.Background())
			s.Wait()

			st := s.State()
			if st.Busy != tt.wantBusy {
				t.Errorf("busy = %v, want %v", st.Busy, tt.wantBusy)
			}
			if st.Stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", st.Stage, tt.wantStage)
			}
			if st.Failures != 1 {
				t.Errorf("failures = %d, want 1", st.Failures)
			}
			if _, err := s.Tap(context.Background()); tt.wantBusy && !errors.Is(err, ErrBusy) {
				t.Errorf("stuck lock should refuse taps, got %v", err)
			}
			s.Wait()
		})
	}
}

func TestErrorKeepsPreviousResults(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl)

	s.Tap(context.Background())
	s.SpeechFinished(narrator.next(t), nil)
	s.Wait()

	cl.ClassifyFunc = func(ctx context.Context, image []byte) ([]classify.Classification, error) {
		return nil, errors.New("inference failed")
	}
	s.Tap(context.Background())
	s.Wait()

	st := s.State()
	if st.Identification != "cup" || st.ConfidenceText != "CONFIDENCE: 91%" {
		t.Errorf("previous results should stay on screen, got %q / %q", st.Identification, st.ConfidenceText)
	}
}

func TestOnChange(t *testing.T) {
	var mu sync.Mutex
	var states []State

	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl, WithOnChange(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	}))

	s.Tap(context.Background())
	s.SpeechFinished(narrator.next(t), nil)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()

	// tap, photo, presentation, finish
	if len(states) != 4 {
		t.Fatalf("expected 4 updates, got %d", len(states))
	}
	if !states[0].Busy || states[0].Stage != StageCapturing {
		t.Errorf("first update should show busy capturing: %+v", states[0])
	}
	if last := states[len(states)-1]; last.Busy || last.Identification != "cup" {
		t.Errorf("final update: %+v", last)
	}
}

func TestOnChangeDeliversNewestLast(t *testing.T) {
	var (
		mu        sync.Mutex
		published []State
		gate      atomic.Bool
	)
	held := make(chan struct{}, 1)
	release := make(chan struct{})
	onChange := func(st State) {
		if gate.CompareAndSwap(true, false) {
			held <- struct{}{}
			<-release
		}
		mu.Lock()
		published = append(published, st)
		mu.Unlock()
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(published)
	}

	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	s, _, narrator := newTestScreen(cl, WithOnChange(onChange))
	if _, err := s.Tap(context.Background()); err != nil {
		t.Fatalf("tap: %v", err)
	}
	u := narrator.next(t)
	s.Wait()
	before := count()

	// A flash toggle snapshot (busy) stalls in the subscriber while the
	// cycle finishes and releases the lock.
	gate.Store(true)
	go s.ToggleFlash()
	select {
	case <-held:
	case <-time.After(2 * time.Second):
		t.Fatal("toggle snapshot never delivered")
	}
	go s.SpeechFinished(u, nil)

	deadline := time.Now().Add(2 * time.Second)
	for s.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("lock not released")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)

	deadline = time.Now().Add(2 * time.Second)
	for count() < before+2 {
		if time.Now().After(deadline) {
			t.Fatalf("published %d snapshots, want %d", count(), before+2)
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	last := published[len(published)-1]
	mu.Unlock()
	if last.Busy || last.Stage != StageIdle {
		t.Errorf("last published busy=%v stage=%s, want idle", last.Busy, last.Stage)
	}
	if last.Flash != camera.FlashOn {
		t.Errorf("last published flash=%v, want on", last.Flash)
	}
}

func TestScreenWithNarrator(t *testing.T) {
	cl := classify.NewMock(classify.Classification{Label: "cup", Confidence: 0.91})
	capturer := &fakeCapturer{}

	n := narration.New(tts.NewMock(), nil)
	s := NewScreen(capturer, cl, n)
	n.SetListener(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)
	defer n.Close()

	if _, err := s.Tap(ctx); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for s.Busy() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Busy() {
		t.Error("lock should be released once narration completes")
	}
}
