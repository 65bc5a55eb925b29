package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port    string
	LogMode string

	LLMProvider     string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float64
	MaxTokens       int

	UpstreamRetries int
	UpstreamTimeout time.Duration

	MaxUploadBytes int64
	MaxSourceChars int
	MaxQuestions   int

	CORSOrigins []string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:    envOr("PORT", "8080"),
		LogMode: envOr("LOG_MODE", "dev"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", ProviderGoogleAI)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		Temperature:     envFloat("LLM_TEMPERATURE", 0.4),
		MaxTokens:       envInt("LLM_MAX_TOKENS", 8192),

		UpstreamRetries: envInt("UPSTREAM_RETRIES", 2),
		UpstreamTimeout: time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", 120)) * time.Second,

		MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 25)) << 20,
		MaxSourceChars: envInt("MAX_SOURCE_CHARS", 200000),
		MaxQuestions:   envInt("MAX_QUESTIONS", 50),

		CORSOrigins: csvOr("CORS_ORIGINS", "*"),
	}
}

// Validate checks that the selected provider has credentials and that the
// numeric limits are usable.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGoogleAI:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required for provider %q", c.LLMProvider)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required for provider %q", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.UpstreamRetries < 0 {
		return fmt.Errorf("UPSTREAM_RETRIES must not be negative")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxUploadBytes <= 0 || c.MaxSourceChars <= 0 || c.MaxQuestions <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB, MAX_SOURCE_CHARS and MAX_QUESTIONS must be positive")
	}
	return nil
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envFloat(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func csvOr(name, def string) []string {
	raw := envOr(name, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
