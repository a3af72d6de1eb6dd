// Package search orchestrates chunk retrieval: query embedding plus hybrid
// or keyword search against the chunk index.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/metrics"
)

const (
	// DefaultSize is used when a request does not set a result count.
	DefaultSize = 10
	// MaxSize caps the result count per request.
	MaxSize = 100

	// ModeHybrid labels results fused from BM25 and kNN.
	ModeHybrid = "hybrid"
	// ModeBM25 labels keyword-only results.
	ModeBM25 = "bm25"
)

// Request is one chunk search.
type Request struct {
	Corpus    domain.Corpus
	Query     string
	Size      int
	UseHybrid bool
	Filters   domain.SearchFilters
}

// Result holds ranked hits plus the mode that produced them.
type Result struct {
	Hits       []domain.ChunkHit
	Total      int
	SearchMode string
}

// Service runs chunk searches.
type Service struct {
	index    ChunkSearcher
	embedder domain.QueryEmbedder
	logger   *zap.Logger
}

// New creates a search service.
func New(index ChunkSearcher, embedder domain.QueryEmbedder, logger *zap.Logger) *Service {
	return &Service{index: index, embedder: embedder, logger: logger}
}

// Search embeds the query when hybrid mode is requested and runs the search.
// An embedding failure degrades to keyword search instead of failing the
// request; the degradation is logged and visible in the result mode.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Result{}, fmt.Errorf("empty query: %w", domain.ErrInvalidRequest)
	}
	if req.Size <= 0 {
		req.Size = DefaultSize
	}
	if req.Size > MaxSize {
		req.Size = MaxSize
	}

	mode := ModeBM25
	var embedding []float32
	if req.UseHybrid {
		res, err := s.embedder.EmbedQuery(ctx, req.Query)
		if err != nil {
			s.logger.Warn("Query embedding failed, degrading to keyword search",
				zap.String("corpus", string(req.Corpus)), zap.Error(err))
		} else {
			embedding = res.Embedding
			mode = ModeHybrid
		}
	}

	var (
		hits  []domain.ChunkHit
		total int
		err   error
	)
	if mode == ModeHybrid {
		hits, total, err = s.index.SearchHybrid(ctx, req.Corpus, req.Query, embedding, req.Size, req.Filters)
	} else {
		hits, total, err = s.index.SearchBM25(ctx, req.Corpus, req.Query, req.Size, req.Filters)
	}
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Corpus), mode, "error").Inc()
		return Result{}, fmt.Errorf("search %s: %w", req.Corpus, err)
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(req.Corpus), mode, "ok").Inc()
	return Result{Hits: hits, Total: total, SearchMode: mode}, nil
}
