package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/teammate/internal/core"
)

// openaiSampleRate is the fixed rate of the OpenAI pcm response format.
const openaiSampleRate = 24000

// OpenAI synthesizes speech through the OpenAI speech endpoint, requesting
// raw PCM so the result can be played without a decoder.
type OpenAI struct {
	client *openai.Client
	voice  core.VoiceParams
}

func NewOpenAI(apiKey string, voice core.VoiceParams) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(apiKey),
		voice:  voice,
	}
}

func (p *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, &core.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.voice.ModelID),
		Input:          text,
		Voice:          openai.SpeechVoice(p.voice.VoiceID),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          p.voice.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSynthesis, err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", core.ErrSynthesis, err)
	}
	return pcm, nil
}

func (p *OpenAI) SampleRate() int {
	return openaiSampleRate
}
