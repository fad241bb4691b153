package narration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/findit/pkg/tts"
)

type recordingPlayer struct {
	mu      sync.Mutex
	played  int
	err     error
	block   chan struct{}
	cancels int
}

func (p *recordingPlayer) Play(ctx context.Context, result *tts.AudioResult) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played++
	return p.err
}

func (p *recordingPlayer) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels++
}

type finished struct {
	u   Utterance
	err error
}

func collect() (Listener, <-chan finished) {
	ch := make(chan finished, 16)
	return ListenerFunc(func(u Utterance, err error) {
		ch <- finished{u, err}
	}), ch
}

func waitFinished(t *testing.T, ch <-chan finished) finished {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SpeechFinished")
		return finished{}
	}
}

func TestSpeakFIFO(t *testing.T) {
	listener, ch := collect()
	player := &recordingPlayer{}
	n := New(tts.NewMock(), player, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := uuid.New()
	first, err := n.Speak(cycle, "first")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := n.Speak(cycle, "second")

	go n.Run(ctx)

	got1 := waitFinished(t, ch)
	got2 := waitFinished(t, ch)

	if got1.u.ID != first.ID || got2.u.ID != second.ID {
		t.Errorf("order: got %s, %s", got1.u.Text, got2.u.Text)
	}
	if got1.err != nil || got2.err != nil {
		t.Errorf("unexpected errors: %v, %v", got1.err, got2.err)
	}
	if got1.u.CycleID != cycle {
		t.Errorf("cycle ID not carried through")
	}

	n.Close()
	if spoken, failed := n.Stats(); spoken != 2 || failed != 0 {
		t.Errorf("stats: spoken=%d failed=%d", spoken, failed)
	}
	if player.played != 2 {
		t.Errorf("expected 2 plays, got %d", player.played)
	}
}

func TestSynthesisFailureStillNotifies(t *testing.T) {
	listener, ch := collect()
	synthErr := errors.New("engine missing")
	n := New(tts.WithError(synthErr), &recordingPlayer{}, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	if _, err := n.Speak(uuid.New(), "hello"); err != nil {
		t.Fatal(err)
	}

	got := waitFinished(t, ch)
	if !errors.Is(got.err, synthErr) {
		t.Errorf("expected synthesis error, got %v", got.err)
	}
	n.Close()
}

func TestPlaybackFailureStillNotifies(t *testing.T) {
	listener, ch := collect()
	playErr := errors.New("no sound card")
	n := New(tts.NewMock(), &recordingPlayer{err: playErr}, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Speak(uuid.New(), "hello")

	if got := waitFinished(t, ch); !errors.Is(got.err, playErr) {
		t.Errorf("expected playback error, got %v", got.err)
	}
	n.Close()
}

func TestNilPlayer(t *testing.T) {
	listener, ch := collect()
	n := New(tts.NewMock(), nil, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Speak(uuid.New(), "silent")
	if got := waitFinished(t, ch); got.err != nil {
		t.Errorf("unexpected error: %v", got.err)
	}
	n.Close()
}

func TestCloseDrainsQueue(t *testing.T) {
	listener, ch := collect()
	n := New(tts.NewMock(), &recordingPlayer{}, WithListener(listener))

	n.Speak(uuid.New(), "never spoken")
	n.Close()

	got := waitFinished(t, ch)
	if !errors.Is(got.err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", got.err)
	}

	if _, err := n.Speak(uuid.New(), "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestQueueFull(t *testing.T) {
	n := New(tts.NewMock(), nil, WithQueueSize(1))

	if _, err := n.Speak(uuid.New(), "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Speak(uuid.New(), "two"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if n.Pending() != 1 {
		t.Errorf("expected 1 pending, got %d", n.Pending())
	}
	n.Close()
}

func TestCloseInterruptsPlayback(t *testing.T) {
	listener, ch := collect()
	player := &recordingPlayer{block: make(chan struct{})}
	n := New(tts.NewMock(), player, WithListener(listener))

	ctx, cancel := context.WithCancel(context.Background())
	go n.Run(ctx)

	n.Speak(uuid.New(), "long")
	time.Sleep(20 * time.Millisecond)

	// The recording player ignores Cancel, so unblock it through the context.
	cancel()
	waitFinished(t, ch)
	n.Close()

	player.mu.Lock()
	defer player.mu.Unlock()
	if player.cancels != 1 {
		t.Errorf("expected Cancel on close, got %d", player.cancels)
	}
}

func TestCloseCancelsSynthesis(t *testing.T) {
	listener, ch := collect()
	started := make(chan struct{})
	provider := tts.NewMock()
	provider.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	n := New(provider, nil, WithListener(listener))
	go n.Run(context.Background())

	n.Speak(uuid.New(), "slow provider")
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("synthesis never started")
	}

	closed := make(chan struct{})
	go func() {
		n.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on in-flight synthesis")
	}

	if got := waitFinished(t, ch); !errors.Is(got.err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", got.err)
	}
}
