package search

import (
	"context"

	"github.com/curator-labs/curator/internal/domain"
)

// ChunkSearcher defines the search index contract for chunk queries.
type ChunkSearcher interface {
	SearchHybrid(ctx context.Context, corpus domain.Corpus, query string, embedding []float32, size int, filters domain.SearchFilters) ([]domain.ChunkHit, int, error)
	SearchBM25(ctx context.Context, corpus domain.Corpus, query string, size int, filters domain.SearchFilters) ([]domain.ChunkHit, int, error)
}
