package findit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/classify"
	"github.com/teslashibe/findit/pkg/narration"
)

// ErrBusy is returned by Tap while a capture cycle is in flight.
var ErrBusy = errors.New("findit: capture in progress")

// Capturer takes still photos. camera.Session implements it.
type Capturer interface {
	SetFlash(mode camera.FlashMode)
	CaptureStill(ctx context.Context) (*camera.Photo, error)
}

// Narrator speaks text for a capture cycle. narration.Narrator implements it.
type Narrator interface {
	Speak(cycleID uuid.UUID, text string) (narration.Utterance, error)
}

// Stage is the step a capture cycle has reached.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageCapturing   Stage = "capturing"
	StageClassifying Stage = "classifying"
	StageSpeaking    Stage = "speaking"
	StageFailed      Stage = "failed"
)

// State is a snapshot of everything the UI displays.
type State struct {
	Flash      camera.FlashMode `json:"flash"`
	FlashLabel string           `json:"flash_label"`

	// Busy mirrors the interaction lock and drives the activity indicator.
	Busy  bool  `json:"busy"`
	Stage Stage `json:"stage"`

	Identification string  `json:"identification"`
	ConfidenceText string  `json:"confidence_text"`
	Outcome        Outcome `json:"outcome,omitempty"`

	CycleID string        `json:"cycle_id,omitempty"`
	Photo   *camera.Photo `json:"photo,omitempty"`

	Cycles    int       `json:"cycles"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ScreenOption {
	return func(s *Screen) { s.logger = logger }
}

// WithReleaseOnError controls whether a failed cycle frees the lock.
func WithReleaseOnError(release bool) ScreenOption {
	return func(s *Screen) { s.releaseOnError = release }
}

// WithOnChange registers a callback invoked with a snapshot after every
// state change. It is called without the screen lock held. Calls never
// overlap and each snapshot is at least as new as the one before it.
func WithOnChange(fn func(State)) ScreenOption {
	return func(s *Screen) { s.onChange = fn }
}

// Screen is the per-screen state object driving capture cycles.
type Screen struct {
	capturer   Capturer
	classifier classify.Classifier
	narrator   Narrator
	logger     *slog.Logger

	releaseOnError bool
	onChange       func(State)
	notifyMu       sync.Mutex

	lock Lock
	wg   sync.WaitGroup

	mu       sync.Mutex
	flash    camera.FlashMode
	cycleID  uuid.UUID
	stage    Stage
	shown    Presentation
	photo    *camera.Photo
	cycles   int
	failures int
	updated  time.Time
}

// NewScreen creates a screen with flash off and the lock released.
func NewScreen(capturer Capturer, classifier classify.Classifier, narrator Narrator, opts ...ScreenOption) *Screen {
	s := &Screen{
		capturer:       capturer,
		classifier:     classifier,
		narrator:       narrator,
		logger:         slog.Default(),
		releaseOnError: true,
		flash:          camera.FlashOff,
		stage:          StageIdle,
		updated:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "findit.screen")
	return s
}

// ToggleFlash flips the flash mode used by the next capture and returns it.
// The button title is mode.Label().
func (s *Screen) ToggleFlash() camera.FlashMode {
	s.mu.Lock()
	s.flash = s.flash.Toggle()
	mode := s.flash
	s.touchLocked()
	s.mu.Unlock()

	s.logger.Debug("flash toggled", "flash", mode)
	s.notify()
	return mode
}

// Flash returns the current flash mode.
func (s *Screen) Flash() camera.FlashMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash
}

// Busy reports whether the interaction lock is engaged.
func (s *Screen) Busy() bool {
	return s.lock.Held()
}

// Tap starts a capture cycle in the background and returns its ID.
// It returns ErrBusy without side effects while the lock is engaged.
// ctx bounds the whole cycle, not just this call.
func (s *Screen) Tap(ctx context.Context) (uuid.UUID, error) {
	if !s.lock.Acquire() {
		s.logger.Debug("tap ignored, capture in progress")
		return uuid.Nil, ErrBusy
	}

	cycle := uuid.New()

	s.mu.Lock()
	s.cycleID = cycle
	s.stage = StageCapturing
	s.cycles++
	flash := s.flash
	s.touchLocked()
	s.mu.Unlock()

	s.logger.Info("capture cycle started", "cycle", cycle, "flash", flash)
	s.notify()

	s.wg.Add(1)
	go s.runCycle(ctx, cycle, flash)

	return cycle, nil
}

// runCycle captures, classifies, presents and hands the result to narration.
// The lock is released later by SpeechFinished.
func (s *Screen) runCycle(ctx context.Context, cycle uuid.UUID, flash camera.FlashMode) {
	defer s.wg.Done()

	s.capturer.SetFlash(flash)
	photo, err := s.capturer.CaptureStill(ctx)
	if err != nil {
		s.fail(cycle, StageCapturing, err)
		return
	}

	s.mu.Lock()
	s.photo = photo
	s.stage = StageClassifying
	s.touchLocked()
	s.mu.Unlock()
	s.notify()

	start := time.Now()
	results, err := s.classifier.Classify(ctx, photo.Data)
	if err != nil {
		s.fail(cycle, StageClassifying, err)
		return
	}

	p := Present(results)
	s.logger.Info("classified photo",
		"cycle", cycle,
		"outcome", p.Outcome,
		"label", p.Label,
		"confidence", p.Confidence,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	s.mu.Lock()
	s.shown = p
	s.stage = StageSpeaking
	s.touchLocked()
	s.mu.Unlock()
	s.notify()

	if _, err := s.narrator.Speak(cycle, p.Speech); err != nil {
		s.fail(cycle, StageSpeaking, err)
	}
}

// fail logs a cycle error. Display regions keep their previous contents.
func (s *Screen) fail(cycle uuid.UUID, stage Stage, err error) {
	s.logger.Error("capture cycle failed", "cycle", cycle, "stage", stage, "error", err)

	s.mu.Lock()
	s.failures++
	if s.cycleID != cycle {
		s.mu.Unlock()
		return
	}
	if s.releaseOnError {
		s.stage = StageIdle
		s.lock.Release()
	} else {
		s.stage = StageFailed
	}
	s.touchLocked()
	s.mu.Unlock()

	if !s.releaseOnError {
		s.logger.Warn("interaction lock left engaged", "cycle", cycle)
	}
	s.notify()
}

// SpeechFinished releases the lock when u belongs to the current cycle.
// It implements narration.Listener.
func (s *Screen) SpeechFinished(u narration.Utterance, err error) {
	if err != nil {
		s.logger.Warn("narration failed", "cycle", u.CycleID, "error", err)
	}

	s.mu.Lock()
	if u.CycleID != s.cycleID || !s.lock.Held() {
		s.mu.Unlock()
		s.logger.Debug("ignoring narration for stale cycle", "cycle", u.CycleID)
		return
	}
	s.stage = StageIdle
	s.lock.Release()
	s.touchLocked()
	s.mu.Unlock()

	s.logger.Info("capture cycle finished", "cycle", u.CycleID)
	s.notify()
}

// State returns a snapshot for the UI.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// LastPhoto returns the most recent captured photo, or nil.
func (s *Screen) LastPhoto() *camera.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo
}

// Wait blocks until every started cycle has handed off to narration or
// failed. It does not wait for speech.
func (s *Screen) Wait() {
	s.wg.Wait()
}

func (s *Screen) stateLocked() State {
	st := State{
		Flash:          s.flash,
		FlashLabel:     s.flash.Label(),
		Busy:           s.lock.Held(),
		Stage:          s.stage,
		Identification: s.shown.Identification,
		ConfidenceText: s.shown.ConfidenceText,
		Outcome:        s.shown.Outcome,
		Photo:          s.photo,
		Cycles:         s.cycles,
		Failures:       s.failures,
		UpdatedAt:      s.updated,
	}
	if s.cycleID != uuid.Nil {
		st.CycleID = s.cycleID.String()
	}
	return st
}

func (s *Screen) touchLocked() {
	s.updated = time.Now()
}

// notify snapshots and delivers under notifyMu so a slow subscriber
// cannot publish an older state after a newer one.
func (s *Screen) notify() {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.onChange(s.State())
}

var _ narration.Listener = (*Screen)(nil)
