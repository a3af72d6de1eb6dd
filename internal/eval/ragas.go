package eval

import (
	"context"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/transport/ragas"
)

// Scorer grades answers against their retrieval context.
type Scorer interface {
	Score(ctx context.Context, samples []ragas.Sample) (ragas.Scores, error)
}

// scoreAnswers builds scorer samples from the run and delegates grading. A
// scorer failure (or no scorer at all) yields zero scores; the failure is
// logged as a structured warning so a zero report is never mistaken for a
// genuinely bad pipeline.
func scoreAnswers(ctx context.Context, scorer Scorer, ds Dataset, responses []RAGResponse, logger *zap.Logger) RagasScores {
	if scorer == nil {
		logger.Warn("Answer quality scoring disabled, reporting zero scores")
		return RagasScores{}
	}

	samples := make([]ragas.Sample, len(responses))
	for i, r := range responses {
		samples[i] = ragas.Sample{
			Question:    ds.Questions[i],
			Answer:      r.Answer,
			Contexts:    r.Contexts,
			GroundTruth: ds.GroundTruths[i],
		}
	}

	scores, err := scorer.Score(ctx, samples)
	if err != nil {
		logger.Warn("Answer quality scoring failed, reporting zero scores",
			zap.Int("samples", len(samples)), zap.Error(err))
		return RagasScores{}
	}

	return RagasScores{
		Faithfulness:     scores.Faithfulness,
		AnswerRelevancy:  scores.AnswerRelevancy,
		ContextPrecision: scores.ContextPrecision,
		ContextRecall:    scores.ContextRecall,
		RagasScore:       scores.RagasScore,
	}
}
