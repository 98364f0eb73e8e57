package tts

import (
	"fmt"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
)

// New builds a synthesizer from config and credentials.
func New(cfg *config.Config, creds *config.Credentials) (core.Synthesizer, error) {
	switch cfg.TTS.Provider {
	case "openai":
		if creds.OpenAIAPIKey == "" {
			return nil, &core.ConfigError{Section: "tts", Key: "provider", Reason: "OPENAI_API_KEY is not set"}
		}
		return NewOpenAI(creds.OpenAIAPIKey, cfg.Voice()), nil
	case "elevenlabs":
		if creds.ElevenLabsAPIKey == "" {
			return nil, &core.ConfigError{Section: "tts", Key: "provider", Reason: "ELEVENLABS_API_KEY is not set"}
		}
		return NewElevenLabs(creds.ElevenLabsAPIKey, cfg.Voice()), nil
	default:
		return nil, &core.ConfigError{Section: "tts", Key: "provider", Reason: fmt.Sprintf("unknown provider %q", cfg.TTS.Provider)}
	}
}
