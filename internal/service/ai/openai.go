package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
)

// OpenAIGenerator generates therapy plans with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates the OpenAI-backed generator. The client is left nil
// when OPENAI_API_KEY is absent.
func NewOpenAIGenerator(cfg config.AIConfig) *OpenAIGenerator {
	g := &OpenAIGenerator{model: cfg.OpenAIModel}
	if g.model == "" {
		g.model = openai.GPT4oMini
	}
	if cfg.OpenAIAPIKey == "" {
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", missingCredential("OPENAI_API_KEY")
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cleanOutput(resp.Choices[0].Message.Content)
}
