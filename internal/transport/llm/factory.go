package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

// Config holds generation provider settings.
type Config struct {
	Provider    string // openai, ollama, gemini
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// Generator pairs answer generation with a liveness probe.
type Generator interface {
	domain.Generator
	HealthCheck(ctx context.Context) error
}

// New builds the configured answer generator. Ollama runs through the
// OpenAI-compatible endpoint, so only the base URL differs.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
		if cfg.APIKey == "" {
			// The client requires a token; Ollama ignores it.
			cfg.APIKey = "ollama"
		}
		return NewOpenAIGenerator(cfg), nil
	case "gemini":
		return NewGeminiGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
