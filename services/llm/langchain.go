package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainGenerator drives any langchaingo model with a single prompt and
// asks for JSON-only output.
type LangChainGenerator struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

func NewLangChain(model llms.Model, temperature float64, maxTokens int) *LangChainGenerator {
	return &LangChainGenerator{llm: model, temperature: temperature, maxTokens: maxTokens}
}

func NewGoogleAI(ctx context.Context, apiKey, model string, temperature float64, maxTokens int) (*LangChainGenerator, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}
	return NewLangChain(llm, temperature, maxTokens), nil
}

func NewOpenAI(apiKey, model, baseURL string, temperature float64, maxTokens int) (*LangChainGenerator, error) {
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewLangChain(llm, temperature, maxTokens), nil
}

func (g *LangChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(g.temperature),
		llms.WithJSONMode(),
	}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate LLM response: %w", err)
	}
	return strings.TrimSpace(completion), nil
}
