package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
)

// Service generates therapy plans through an eino chain over an Ark chat model.
type Service struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	missing string
}

// NewService creates the Ark-backed generator. Without credentials it returns a
// Service whose Generate always fails with ErrMissingCredential.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	if !cfg.Enabled() {
		return &Service{missing: cfg.MissingCredential()}, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel compiles the generation chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Configured reports whether Generate can reach a model.
func (s *Service) Configured() bool {
	return s != nil && s.chain != nil
}

// Generate sends the prompt as a single user message and returns the trimmed reply.
func (s *Service) Generate(ctx context.Context, promptText string) (string, error) {
	if !s.Configured() {
		return "", missingCredential(s.missing)
	}

	response, err := s.chain.Invoke(ctx, map[string]any{"prompt": promptText})
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}
	return cleanOutput(response.Content)
}
