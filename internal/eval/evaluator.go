package eval

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Evaluator runs a pipeline over a dataset and aggregates metrics.
type Evaluator struct {
	pipeline  Pipeline
	scorer    Scorer
	costPer1K float64
	logger    *zap.Logger
}

// Config holds evaluator settings.
type Config struct {
	Pipeline        Pipeline
	Scorer          Scorer // nil disables answer quality scoring
	CostPer1KTokens float64
	Logger          *zap.Logger
}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	costPer1K := cfg.CostPer1KTokens
	if costPer1K <= 0 {
		costPer1K = DefaultCostPer1KTokens
	}
	return &Evaluator{
		pipeline:  cfg.Pipeline,
		scorer:    cfg.Scorer,
		costPer1K: costPer1K,
		logger:    cfg.Logger,
	}
}

// Evaluate runs every question sequentially. A question whose pipeline call
// fails is replaced with a zero-valued placeholder and counted; a single bad
// question must never abort the batch.
func (e *Evaluator) Evaluate(ctx context.Context, ds Dataset) (EvaluationResult, error) {
	if len(ds.Questions) == 0 {
		return EvaluationResult{}, fmt.Errorf("dataset has no questions")
	}
	if len(ds.GroundTruths) != len(ds.Questions) {
		return EvaluationResult{}, fmt.Errorf("dataset has %d questions but %d ground truths",
			len(ds.Questions), len(ds.GroundTruths))
	}

	e.logger.Info("Starting evaluation", zap.Int("questions", len(ds.Questions)))

	responses := make([]RAGResponse, len(ds.Questions))
	var latencies []float64
	failed := 0

	for i, question := range ds.Questions {
		if err := ctx.Err(); err != nil {
			return EvaluationResult{}, fmt.Errorf("evaluation canceled: %w", err)
		}

		resp, err := e.pipeline(ctx, question)
		if err != nil {
			failed++
			e.logger.Warn("Question failed",
				zap.Int("question", i+1), zap.Error(err))
			responses[i] = RAGResponse{}
			continue
		}
		responses[i] = resp
		latencies = append(latencies, resp.LatencyMs)
	}

	result := EvaluationResult{
		NumSamples:    len(ds.Questions),
		FailedQueries: failed,
		Ragas:         scoreAnswers(ctx, e.scorer, ds, responses, e.logger),
		Ranking:       rankingMetrics(responses, ds.RelevantDocIDs),
		Latency:       latencyMetrics(latencies),
		Cost:          costMetrics(responses, e.costPer1K),
	}

	e.logger.Info("Evaluation finished",
		zap.Int("samples", result.NumSamples),
		zap.Int("failed", result.FailedQueries),
		zap.Float64("mrr", result.Ranking.MRR),
		zap.Float64("ragas_score", result.Ragas.RagasScore))
	return result, nil
}
