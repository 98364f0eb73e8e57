package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/retry"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"

	// pcm_16000 keeps the output at the capture rate, no decoder needed.
	elevenLabsFormat     = "pcm_16000"
	elevenLabsSampleRate = 16000
)

// ElevenLabs synthesizes speech through the ElevenLabs API.
type ElevenLabs struct {
	client  *http.Client
	baseURL string
	apiKey  string
	voice   core.VoiceParams
	retrier *retry.Retrier
}

func NewElevenLabs(apiKey string, voice core.VoiceParams) *ElevenLabs {
	return &ElevenLabs{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: elevenLabsBaseURL,
		apiKey:  apiKey,
		voice:   voice,
		retrier: retry.NewDefaultRetrier(),
	}
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (p *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, &core.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	var pcm []byte
	err := p.retrier.Do(ctx, func() error {
		var err error
		pcm, err = p.synthesizeOnce(ctx, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSynthesis, err)
	}
	return pcm, nil
}

func (p *ElevenLabs) synthesizeOnce(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: p.voice.ModelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       p.voice.Stability,
			SimilarityBoost: p.voice.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", p.baseURL, p.voice.VoiceID, elevenLabsFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}

	return io.ReadAll(resp.Body)
}

func (p *ElevenLabs) SampleRate() int {
	return elevenLabsSampleRate
}
