// Package narration speaks text aloud in the order it was queued.
//
// A single worker synthesizes each Utterance with a tts.Provider, plays it
// through a Player and then reports completion to the Listener. Every queued
// utterance produces exactly one SpeechFinished call, including when
// synthesis or playback fails or the narrator shuts down first.
package narration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/findit/pkg/tts"
)

var (
	// ErrClosed is reported for utterances that were not spoken because the
	// narrator was closed.
	ErrClosed = errors.New("narration: closed")

	// ErrQueueFull is returned by Speak when the queue has no room.
	ErrQueueFull = errors.New("narration: queue full")
)

// DefaultQueueSize is the number of utterances that may wait to be spoken.
const DefaultQueueSize = 8

// Utterance is one piece of text queued for speech.
type Utterance struct {
	ID       uuid.UUID `json:"id"`
	CycleID  uuid.UUID `json:"cycle_id"`
	Text     string    `json:"text"`
	QueuedAt time.Time `json:"queued_at"`
}

// Player plays synthesized audio, blocking until playback ends.
type Player interface {
	Play(ctx context.Context, result *tts.AudioResult) error
	Cancel()
}

// Listener receives the finished notification for each utterance.
// err is nil when the utterance was spoken successfully.
type Listener interface {
	SpeechFinished(u Utterance, err error)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(u Utterance, err error)

// SpeechFinished calls f.
func (f ListenerFunc) SpeechFinished(u Utterance, err error) { f(u, err) }

// Option configures a Narrator.
type Option func(*Narrator)

// WithQueueSize sets the queue capacity.
func WithQueueSize(size int) Option {
	return func(n *Narrator) {
		if size > 0 {
			n.queueSize = size
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Narrator) { n.logger = logger }
}

// WithListener sets the finished listener.
func WithListener(l Listener) Option {
	return func(n *Narrator) { n.listener = l }
}

// Narrator serializes speech output.
type Narrator struct {
	provider  tts.Provider
	player    Player
	logger    *slog.Logger
	queueSize int

	listenerMu sync.RWMutex
	listener   Listener

	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
	queue  chan Utterance
	stop   chan struct{}
	done   chan struct{}

	running atomic.Bool
	spoken  atomic.Int64
	failed  atomic.Int64
}

// New creates a narrator. A nil player synthesizes without playing, which
// suits headless runs.
func New(provider tts.Provider, player Player, opts ...Option) *Narrator {
	n := &Narrator{
		provider:  provider,
		player:    player,
		logger:    slog.Default(),
		queueSize: DefaultQueueSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("component", "narration.narrator")
	n.queue = make(chan Utterance, n.queueSize)
	return n
}

// SetListener replaces the finished listener.
func (n *Narrator) SetListener(l Listener) {
	n.listenerMu.Lock()
	defer n.listenerMu.Unlock()
	n.listener = l
}

// Speak queues text for the given capture cycle and returns immediately.
// The returned Utterance identifies the later SpeechFinished call.
func (n *Narrator) Speak(cycleID uuid.UUID, text string) (Utterance, error) {
	u := Utterance{
		ID:       uuid.New(),
		CycleID:  cycleID,
		Text:     text,
		QueuedAt: time.Now(),
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return u, ErrClosed
	}

	select {
	case n.queue <- u:
		n.logger.Debug("queued utterance", "id", u.ID, "cycle", u.CycleID, "pending", len(n.queue))
		return u, nil
	default:
		return u, ErrQueueFull
	}
}

// Pending returns the number of queued utterances not yet started.
func (n *Narrator) Pending() int {
	return len(n.queue)
}

// Stats returns the number of utterances spoken and failed.
func (n *Narrator) Stats() (spoken, failed int64) {
	return n.spoken.Load(), n.failed.Load()
}

// Run processes the queue until ctx is cancelled or Close is called.
func (n *Narrator) Run(ctx context.Context) {
	if !n.running.CompareAndSwap(false, true) {
		n.logger.Warn("narrator already running")
		return
	}
	defer close(n.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	n.logger.Info("narrator started")
	defer n.logger.Info("narrator stopped")

	for {
		select {
		case <-ctx.Done():
			n.drain()
			return
		case <-n.stop:
			n.drain()
			return
		case u := <-n.queue:
			n.speak(ctx, u)
		}
	}
}

// Close stops the worker and interrupts the utterance in flight, whether it
// is still synthesizing or already playing. It and every utterance still
// queued are reported as finished with ErrClosed.
func (n *Narrator) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.stop)
	cancel := n.cancel
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if n.player != nil {
		n.player.Cancel()
	}

	if n.running.Load() {
		<-n.done
	}
	n.drain()
	return nil
}

func (n *Narrator) speak(ctx context.Context, u Utterance) {
	start := time.Now()

	result, err := n.provider.Synthesize(ctx, u.Text)
	if err == nil && n.player != nil {
		err = n.player.Play(ctx, result)
	}

	if err != nil && ctx.Err() != nil && n.isClosed() {
		err = ErrClosed
	}

	if err != nil {
		n.failed.Add(1)
		n.logger.Warn("utterance failed", "id", u.ID, "cycle", u.CycleID, "error", err)
	} else {
		n.spoken.Add(1)
		n.logger.Debug("utterance spoken", "id", u.ID, "cycle", u.CycleID, "elapsed", time.Since(start))
	}

	n.notify(u, err)
}

func (n *Narrator) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.closed
}

func (n *Narrator) drain() {
	for {
		select {
		case u := <-n.queue:
			n.notify(u, ErrClosed)
		default:
			return
		}
	}
}

func (n *Narrator) notify(u Utterance, err error) {
	n.listenerMu.RLock()
	l := n.listener
	n.listenerMu.RUnlock()

	if l != nil {
		l.SpeechFinished(u, err)
	}
}
