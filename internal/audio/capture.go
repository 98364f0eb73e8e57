// Package audio provides microphone capture and PCM playback through
// portaudio, plus the WAV framing the transcription collaborator expects.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// Capture records mono float32 audio from the default input device and
// emits fixed-duration chunks on a channel.
type Capture struct {
	mu           sync.Mutex
	stream       *portaudio.Stream
	buffer       []float32
	pending      []float32
	running      bool
	done         chan struct{}
	sampleRate   int
	chunkSamples int
	out          chan []float32
}

func NewCapture(sampleRate int, chunk time.Duration) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	return &Capture{
		buffer:       make([]float32, framesPerBuffer),
		sampleRate:   sampleRate,
		chunkSamples: int(float64(sampleRate) * chunk.Seconds()),
		out:          make(chan []float32, 4),
	}, nil
}

// Chunks returns the channel fixed-size sample chunks arrive on.
func (c *Capture) Chunks() <-chan []float32 {
	return c.out
}

func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), framesPerBuffer, c.buffer)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	c.stream = stream
	c.running = true
	c.pending = c.pending[:0]
	c.done = make(chan struct{})

	go c.captureLoop()
	return nil
}

func (c *Capture) captureLoop() {
	defer close(c.done)

	for {
		c.mu.Lock()
		if !c.running {
			c.mu.Unlock()
			return
		}
		stream := c.stream
		c.mu.Unlock()

		if err := stream.Read(); err != nil {
			c.mu.Lock()
			running := c.running
			c.mu.Unlock()
			if !running {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c.mu.Lock()
		c.pending = append(c.pending, c.buffer...)
		var chunk []float32
		if len(c.pending) >= c.chunkSamples {
			chunk = make([]float32, c.chunkSamples)
			copy(chunk, c.pending[:c.chunkSamples])
			c.pending = c.pending[c.chunkSamples:]
		}
		c.mu.Unlock()

		if chunk != nil {
			// Drop the chunk when the consumer lags; stale audio is
			// worse than a gap in a live meeting.
			select {
			case c.out <- chunk:
			default:
			}
		}
	}
}

// Stop halts capture. Partial audio below one chunk is discarded.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stream := c.stream
	c.stream = nil
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
}

func (c *Capture) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Capture) Close() error {
	c.Stop()
	return portaudio.Terminate()
}
