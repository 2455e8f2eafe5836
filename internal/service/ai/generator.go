package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
)

var (
	ErrMissingCredential = errors.New("generation credential missing")
	ErrEmptyResponse     = errors.New("generation returned empty text")
)

// Generator turns a rendered therapy prompt into plan text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the generator for the configured provider. A missing
// credential is not an error here: the returned generator fails every call with
// ErrMissingCredential without touching the network.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	default:
		return NewService(ctx, cfg)
	}
}

func missingCredential(name string) error {
	if name == "" {
		return ErrMissingCredential
	}
	return fmt.Errorf("%w: set %s", ErrMissingCredential, name)
}

func cleanOutput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyResponse
	}
	return trimmed, nil
}
