package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
)

// OpenAI implements the model collaborator contract on the OpenAI chat
// completion API, plain or Azure-hosted.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAI(apiKey string, cfg config.ModelConfig) *OpenAI {
	return newWithClient(openai.NewClient(apiKey), cfg)
}

// NewAzure targets an Azure OpenAI deployment, which is what the original
// stack ran on.
func NewAzure(apiKey, endpoint string, cfg config.ModelConfig) *OpenAI {
	return newWithClient(openai.NewClientWithConfig(openai.DefaultAzureConfig(apiKey, endpoint)), cfg)
}

func newWithClient(client *openai.Client, cfg config.ModelConfig) *OpenAI {
	return &OpenAI{
		client:      client,
		model:       cfg.Name,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (p *OpenAI) Chat(ctx context.Context, messages []core.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", core.ErrGenerationTimeout
		}
		return "", fmt.Errorf("%w: %v", core.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", core.ErrGeneration)
	}

	return resp.Choices[0].Message.Content, nil
}
