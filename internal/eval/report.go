package eval

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintReport renders a human-readable evaluation report to w.
func PrintReport(w io.Writer, r EvaluationResult) {
	header := color.New(color.Bold, color.FgCyan)
	section := color.New(color.Bold)
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	header.Fprintln(w, centered("RAG SYSTEM EVALUATION REPORT", 72))
	fmt.Fprintln(w, rule)

	section.Fprintln(w, "\nSummary")
	fmt.Fprintf(w, "  Samples evaluated:  %d\n", r.NumSamples)
	fmt.Fprintf(w, "  Failed queries:     %d\n", r.FailedQueries)

	section.Fprintln(w, "\nAnswer quality (0-1 scale, higher is better)")
	fmt.Fprintf(w, "  Overall RAGAS Score:  %.3f\n", r.Ragas.RagasScore)
	fmt.Fprintf(w, "  Faithfulness:         %.3f\n", r.Ragas.Faithfulness)
	fmt.Fprintf(w, "  Answer Relevancy:     %.3f\n", r.Ragas.AnswerRelevancy)
	fmt.Fprintf(w, "  Context Precision:    %.3f\n", r.Ragas.ContextPrecision)
	fmt.Fprintf(w, "  Context Recall:       %.3f\n", r.Ragas.ContextRecall)

	section.Fprintln(w, "\nRanking")
	fmt.Fprintf(w, "  MRR:          %.3f\n", r.Ranking.MRR)
	fmt.Fprintf(w, "  Hit Rate@1:   %.1f%%\n", r.Ranking.HitRate1*100)
	fmt.Fprintf(w, "  Hit Rate@3:   %.1f%%\n", r.Ranking.HitRate3*100)
	fmt.Fprintf(w, "  Hit Rate@5:   %.1f%%\n", r.Ranking.HitRate5*100)
	fmt.Fprintf(w, "  Hit Rate@10:  %.1f%%\n", r.Ranking.HitRate10*100)

	section.Fprintln(w, "\nLatency (ms)")
	fmt.Fprintf(w, "  Average:  %.1f\n", r.Latency.AvgMs)
	fmt.Fprintf(w, "  P50:      %.1f\n", r.Latency.P50Ms)
	fmt.Fprintf(w, "  P95:      %.1f\n", r.Latency.P95Ms)
	fmt.Fprintf(w, "  P99:      %.1f\n", r.Latency.P99Ms)

	section.Fprintln(w, "\nCost")
	fmt.Fprintf(w, "  Total tokens:          %d\n", r.Cost.TotalTokens)
	fmt.Fprintf(w, "  Avg tokens per query:  %.1f\n", r.Cost.AvgTokensPerQuery)
	fmt.Fprintf(w, "  Estimated cost:        $%.4f\n", r.Cost.EstimatedCostUSD)
	if r.NumSamples > 0 {
		fmt.Fprintf(w, "  Cost per query:        $%.6f\n", r.Cost.EstimatedCostUSD/float64(r.NumSamples))
	}

	fmt.Fprintln(w, "\n"+rule)
}

func centered(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
