package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/curator-labs/curator/internal/domain"
)

// GeminiGenerator generates answers via the Google Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewGeminiGenerator creates a Gemini answer generator.
func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      cfg.Logger,
	}, nil
}

// GenerateAnswer implements domain.Generator.
func (g *GeminiGenerator) GenerateAnswer(ctx context.Context, query string, chunks []domain.ChunkHit, corpus domain.Corpus) (domain.Answer, error) {
	prompt := BuildRAGPrompt(query, chunks, corpus)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxTokens),
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("gemini generation: %v: %w", err, domain.ErrGenerationProviderError)
	}

	text := resp.Text()
	if text == "" {
		return domain.Answer{}, fmt.Errorf("empty gemini response: %w", domain.ErrGenerationProviderError)
	}

	answer := domain.Answer{
		Text:      text,
		Sources:   sourceIDs(chunks),
		Citations: ExtractCitations(text, corpus),
		Model:     g.model,
	}
	if resp.UsageMetadata != nil {
		answer.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	g.logger.Debug("Generated answer",
		zap.String("model", g.model),
		zap.Int("tokens", answer.TokensUsed),
		zap.Int("chunks", len(chunks)))
	return answer, nil
}

// HealthCheck issues a minimal generation, mirroring how the API is used.
func (g *GeminiGenerator) HealthCheck(ctx context.Context) error {
	_, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("Hello"), &genai.GenerateContentConfig{
		MaxOutputTokens: 8,
	})
	if err != nil {
		return fmt.Errorf("gemini health check: %w", err)
	}
	return nil
}
