package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicSystemPrompt = "You write quizzes. Reply with a single JSON value and nothing else."

type AnthropicGenerator struct {
	client      *anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

func NewAnthropic(apiKey, model string, temperature float64, maxTokens int) *AnthropicGenerator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{
		client:      &client,
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		System:      []anthropic.TextBlockParam{{Text: anthropicSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	var out strings.Builder
	for _, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}
