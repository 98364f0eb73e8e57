package speaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/teammate/internal/core"
)

type stubSynth struct {
	mu        sync.Mutex
	texts     []string
	failFirst bool
}

func (s *stubSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst {
		s.failFirst = false
		return nil, errors.New("voice service down")
	}
	s.texts = append(s.texts, text)
	return []byte{0, 0, 1, 0}, nil
}

func (s *stubSynth) SampleRate() int { return 16000 }

func (s *stubSynth) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func newTestSpeaker(synth core.Synthesizer, played chan []byte) *Speaker {
	s := New(synth)
	s.play = func(_ context.Context, pcm []byte, _ int) error {
		played <- pcm
		return nil
	}
	return s
}

func TestSpeakerPlaysQueuedReplies(t *testing.T) {
	synth := &stubSynth{}
	played := make(chan []byte, 4)
	s := newTestSpeaker(synth, played)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	s.Say(ctx, "first")
	s.Say(ctx, "second")

	for range 2 {
		select {
		case <-played:
		case <-time.After(time.Second):
			t.Fatal("reply was not played")
		}
	}
	assert.Equal(t, []string{"first", "second"}, synth.spoken())
}

func TestSpeakerSkipsEmptyText(t *testing.T) {
	synth := &stubSynth{}
	played := make(chan []byte, 1)
	s := newTestSpeaker(synth, played)

	s.Say(context.Background(), "")

	select {
	case <-s.queue:
		t.Fatal("empty text should not be queued")
	default:
	}
}

func TestSpeakerSurvivesSynthesisFailure(t *testing.T) {
	synth := &stubSynth{failFirst: true}
	played := make(chan []byte, 1)
	s := newTestSpeaker(synth, played)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Shutdown(context.Background())

	s.Say(ctx, "doomed")
	s.Say(ctx, "recovered")

	select {
	case <-played:
	case <-time.After(time.Second):
		t.Fatal("speaker did not recover after a failure")
	}
	assert.Equal(t, []string{"recovered"}, synth.spoken())
}

func TestSpeakerClearDrainsQueue(t *testing.T) {
	s := New(&stubSynth{})

	s.queue <- "a"
	s.queue <- "b"
	s.Clear()

	assert.Empty(t, s.queue)
}
