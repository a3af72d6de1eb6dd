package domain

import "context"

// EmbeddingResult is a single vector plus the token usage it cost.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// QueryEmbedder turns a search query into a vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) (EmbeddingResult, error)
}

// PassageEmbedder turns document chunks into vectors, preserving input order.
// Returns the vectors and the total tokens consumed. The caller does not
// retry: a definitive provider failure is returned as-is.
type PassageEmbedder interface {
	EmbedPassages(ctx context.Context, texts []string, batchSize int) ([][]float32, int, error)
}

// Embedder is the full embedding contract used by the composition roots.
type Embedder interface {
	QueryEmbedder
	PassageEmbedder
}

// HealthChecker is implemented by clients that can verify upstream availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
