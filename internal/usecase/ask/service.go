// Package ask implements retrieval-augmented question answering: retrieve
// chunks for a question, then generate a cited answer from them.
package ask

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/usecase/search"
)

// DefaultTopK is how many chunks feed the generator when unset.
const DefaultTopK = 5

// Retriever fetches ranked chunks for a question.
type Retriever interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
}

// Request is one RAG question.
type Request struct {
	Corpus    domain.Corpus
	Query     string
	TopK      int
	UseHybrid bool
	Filters   domain.SearchFilters
}

// Response is a generated answer plus the retrieval context it came from.
type Response struct {
	Answer        string
	Sources       []string
	Citations     []string
	ContextChunks []domain.ChunkHit
	SearchMode    string
	TokensUsed    int
	ModelUsed     string
}

// Service answers questions over a corpus.
type Service struct {
	retriever Retriever
	generator domain.Generator
	logger    *zap.Logger
}

// New creates an ask service.
func New(retriever Retriever, generator domain.Generator, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Ask retrieves chunks and generates an answer. A question that retrieves
// nothing returns an empty-context response without calling the generator.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Response{}, fmt.Errorf("empty query: %w", domain.ErrInvalidRequest)
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	result, err := s.retriever.Search(ctx, search.Request{
		Corpus:    req.Corpus,
		Query:     req.Query,
		Size:      req.TopK,
		UseHybrid: req.UseHybrid,
		Filters:   req.Filters,
	})
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}

	if len(result.Hits) == 0 {
		s.logger.Info("No context retrieved for question",
			zap.String("corpus", string(req.Corpus)))
		return Response{
			Answer:     "I could not find any relevant documents for this question.",
			SearchMode: result.SearchMode,
		}, nil
	}

	answer, err := s.generator.GenerateAnswer(ctx, req.Query, result.Hits, req.Corpus)
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("Question answered",
		zap.String("corpus", string(req.Corpus)),
		zap.Int("context_chunks", len(result.Hits)),
		zap.Int("tokens_used", answer.TokensUsed),
		zap.String("model", answer.Model))

	return Response{
		Answer:        answer.Text,
		Sources:       answer.Sources,
		Citations:     answer.Citations,
		ContextChunks: result.Hits,
		SearchMode:    result.SearchMode,
		TokensUsed:    answer.TokensUsed,
		ModelUsed:     answer.Model,
	}, nil
}
