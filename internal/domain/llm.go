package domain

import "context"

// Answer is the output of one RAG generation call.
type Answer struct {
	Text       string
	Sources    []string // source URLs, in citation order
	Citations  []string // citation tags, e.g. "arXiv:2401.01234" or "AAPL 10-K"
	TokensUsed int
	Model      string
}

// Generator produces a grounded answer from retrieved chunks.
type Generator interface {
	GenerateAnswer(ctx context.Context, query string, chunks []ChunkHit, corpus Corpus) (Answer, error)
}
