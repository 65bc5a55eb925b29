// Package llm adapts the supported text-generation providers to a single
// prompt-in, text-out interface.
package llm

import (
	"context"
	"fmt"

	"pdfquiz/config"
	"pdfquiz/logger"
)

// Generator sends one prompt to an upstream model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the generator selected by cfg.LLMProvider, wrapped with the
// bounded retry policy.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (Generator, error) {
	var (
		base Generator
		err  error
	)

	switch cfg.LLMProvider {
	case config.ProviderGoogleAI:
		base, err = NewGoogleAI(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxTokens)
	case config.ProviderOpenAI:
		base, err = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.Temperature, cfg.MaxTokens)
	case config.ProviderAnthropic:
		base = NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Temperature, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}

	log.Info("Upstream model configured",
		"provider", cfg.LLMProvider,
		"retries", cfg.UpstreamRetries,
		"timeout", cfg.UpstreamTimeout.String(),
	)
	return NewRetrying(base, RetryPolicy{
		MaxRetries:     cfg.UpstreamRetries,
		AttemptTimeout: cfg.UpstreamTimeout,
		InitialBackoff: defaultInitialBackoff,
	}, log), nil
}
