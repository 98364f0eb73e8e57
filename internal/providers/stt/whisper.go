package stt

import (
	"bytes"
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/teammate/internal/audio"
	"github.com/sandevgo/teammate/internal/core"
)

// Whisper transcribes PCM audio through the OpenAI transcription endpoint.
type Whisper struct {
	client *openai.Client
	model  string
}

func NewWhisper(apiKey string) *Whisper {
	return &Whisper{
		client: openai.NewClient(apiKey),
		model:  openai.Whisper1,
	}
}

func (p *Whisper) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (core.Transcript, error) {
	if len(samples) == 0 {
		return core.Transcript{}, &core.ValidationError{Field: "samples", Reason: "must not be empty"}
	}

	wav := audio.EncodeWAV(samples, sampleRate)

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		Reader:   bytes.NewReader(wav),
		FilePath: "chunk.wav",
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return core.Transcript{}, fmt.Errorf("%w: %v", core.ErrTranscription, err)
	}

	// Whisper has no confidence field, so the per-segment average log
	// probabilities are folded into a single 0..1 score. No segments means
	// nothing recognizable was heard.
	var score float64
	if len(resp.Segments) > 0 {
		var sum float64
		for _, s := range resp.Segments {
			sum += s.AvgLogprob
		}
		score = math.Min(1, math.Exp(sum/float64(len(resp.Segments))))
	}

	return core.Transcript{
		Text:       resp.Text,
		Confidence: score,
		Language:   resp.Language,
	}, nil
}
