package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/teammate/pkg/log"
)

// Credentials come exclusively from environment variables and are never
// written to the config file or the logs.
type Credentials struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AzureAPIKey      string `env:"AZURE_API_KEY"`
	AzureEndpoint    string `env:"AZURE_ENDPOINT"`
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`
	TavilyAPIKey     string `env:"TAVILY_API_KEY"`
}

func NewCredentials(ctx context.Context) *Credentials {
	c := &Credentials{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse credentials")
	}
	return c
}

// Status reports presence (never values) for the UI key-status panel.
func (c *Credentials) Status() map[string]bool {
	return map[string]bool{
		"OpenAI":     c.OpenAIAPIKey != "" || c.AzureAPIKey != "",
		"ElevenLabs": c.ElevenLabsAPIKey != "",
		"Tavily":     c.TavilyAPIKey != "",
	}
}
