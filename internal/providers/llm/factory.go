package llm

import (
	"fmt"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
)

// New builds a chat model from config and credentials.
func New(cfg config.ModelConfig, creds *config.Credentials) (core.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		if creds.OpenAIAPIKey == "" {
			return nil, &core.ConfigError{Section: "ai.model", Key: "provider", Reason: "OPENAI_API_KEY is not set"}
		}
		return NewOpenAI(creds.OpenAIAPIKey, cfg), nil
	case "azure":
		if creds.AzureAPIKey == "" || creds.AzureEndpoint == "" {
			return nil, &core.ConfigError{Section: "ai.model", Key: "provider", Reason: "AZURE_API_KEY or AZURE_ENDPOINT is not set"}
		}
		return NewAzure(creds.AzureAPIKey, creds.AzureEndpoint, cfg), nil
	default:
		return nil, &core.ConfigError{Section: "ai.model", Key: "provider", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}
