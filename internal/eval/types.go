// Package eval benchmarks a RAG pipeline: answer quality scoring, ranking
// metrics, latency percentiles, and token cost over a question dataset.
package eval

import "context"

// SourceDocument identifies one retrieved document in a response.
type SourceDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	ChunkID string `json:"chunk_id,omitempty"`
	Section string `json:"section,omitempty"`
}

// RAGResponse is one question's pipeline output, immutable once produced.
type RAGResponse struct {
	Answer          string
	Contexts        []string
	SourceDocuments []SourceDocument
	LatencyMs       float64
	TokensUsed      int
	ModelUsed       string
}

// Pipeline answers a single benchmark question.
type Pipeline func(ctx context.Context, question string) (RAGResponse, error)

// Dataset is a benchmark question set. RelevantDocIDs and GroundTruthContexts
// are optional and parallel to Questions when present.
type Dataset struct {
	Questions           []string   `json:"questions"`
	GroundTruths        []string   `json:"ground_truths"`
	RelevantDocIDs      [][]string `json:"relevant_doc_ids,omitempty"`
	GroundTruthContexts [][]string `json:"ground_truth_contexts,omitempty"`
}

// RagasScores holds answer quality metrics in [0, 1].
type RagasScores struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
	RagasScore       float64 `json:"ragas_score"`
}

// RankingMetrics holds retrieval quality metrics.
type RankingMetrics struct {
	MRR       float64 `json:"mrr"`
	HitRate1  float64 `json:"hit_rate@1"`
	HitRate3  float64 `json:"hit_rate@3"`
	HitRate5  float64 `json:"hit_rate@5"`
	HitRate10 float64 `json:"hit_rate@10"`
}

// LatencyMetrics holds per-query latency distribution in milliseconds.
type LatencyMetrics struct {
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// CostMetrics holds token usage and estimated spend.
type CostMetrics struct {
	TotalTokens       int     `json:"total_tokens"`
	AvgTokensPerQuery float64 `json:"avg_tokens_per_query"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
}

// EvaluationResult aggregates one benchmark run. Written once, never mutated.
type EvaluationResult struct {
	NumSamples    int
	FailedQueries int
	Ragas         RagasScores
	Ranking       RankingMetrics
	Latency       LatencyMetrics
	Cost          CostMetrics
}
