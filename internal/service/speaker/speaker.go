package speaker

import (
	"context"
	"time"

	"github.com/sandevgo/teammate/internal/audio"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/log"
)

const synthesisTimeout = 30 * time.Second

// playFunc is swapped in tests to avoid opening an audio device.
type playFunc func(ctx context.Context, pcm []byte, sampleRate int) error

// Speaker voices persona replies. Replies queue up and play one at a time;
// a synthesis failure drops the reply and the next one proceeds.
type Speaker struct {
	synth core.Synthesizer
	queue chan string
	done  chan struct{}
	play  playFunc
}

func New(synth core.Synthesizer) *Speaker {
	return &Speaker{
		synth: synth,
		queue: make(chan string, 8),
		done:  make(chan struct{}),
		play:  audio.Play,
	}
}

// Say enqueues text for synthesis. When the queue is full the reply is
// dropped rather than blocking the conversation loop.
func (s *Speaker) Say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	select {
	case s.queue <- text:
	default:
		log.FromCtx(ctx).Warn().Msg("speech queue full, reply dropped")
	}
}

// Clear drains anything not yet played.
func (s *Speaker) Clear() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

func (s *Speaker) Start(ctx context.Context) error {
	go s.loop(ctx)
	return nil
}

func (s *Speaker) Shutdown(_ context.Context) error {
	close(s.done)
	return nil
}

func (s *Speaker) loop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case text := <-s.queue:
			s.speak(ctx, text)
		}
	}
}

func (s *Speaker) speak(ctx context.Context, text string) {
	logger := log.FromCtx(ctx)

	synthCtx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	pcm, err := s.synth.Synthesize(synthCtx, text)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("synthesis failed, reply not voiced")
		return
	}

	if err := s.play(ctx, pcm, s.synth.SampleRate()); err != nil {
		logger.Error().Err(err).Msg("audio playback failed")
	}
}
