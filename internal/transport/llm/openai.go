package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

// OpenAIGenerator generates answers via the chat completions API. Ollama is
// served by the same code through its OpenAI-compatible endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewOpenAIGenerator creates a chat-completions answer generator.
func NewOpenAIGenerator(cfg Config) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      cfg.Logger,
	}
}

// GenerateAnswer implements domain.Generator.
func (g *OpenAIGenerator) GenerateAnswer(ctx context.Context, query string, chunks []domain.ChunkHit, corpus domain.Corpus) (domain.Answer, error) {
	prompt := BuildRAGPrompt(query, chunks, corpus)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return domain.Answer{}, wrapGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.Answer{}, fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}

	text := resp.Choices[0].Message.Content
	answer := domain.Answer{
		Text:       text,
		Sources:    sourceIDs(chunks),
		Citations:  ExtractCitations(text, corpus),
		TokensUsed: resp.Usage.TotalTokens,
		Model:      g.model,
	}

	g.logger.Debug("Generated answer",
		zap.String("model", g.model),
		zap.Int("tokens", answer.TokensUsed),
		zap.Int("chunks", len(chunks)))
	return answer, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *OpenAIGenerator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// wrapGenerationError tags provider failures for 502 mapping in transport.
func wrapGenerationError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("generation API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrGenerationProviderError)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("generation API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrGenerationProviderError)
	}
	return fmt.Errorf("generation request failed: %v: %w", err, domain.ErrGenerationProviderError)
}
