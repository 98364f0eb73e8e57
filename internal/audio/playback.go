package audio

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Play writes 16-bit little-endian PCM to the default output device,
// blocking until the buffer is played or ctx is cancelled.
func Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) < 2 {
		return nil
	}

	out := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	samples := len(pcm) / 2
	for off := 0; off < samples; off += framesPerBuffer {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := framesPerBuffer
		if off+n > samples {
			n = samples - off
			for i := n; i < framesPerBuffer; i++ {
				out[i] = 0
			}
		}
		for i := 0; i < n; i++ {
			out[i] = int16(binary.LittleEndian.Uint16(pcm[(off+i)*2:]))
		}

		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}

	return nil
}
