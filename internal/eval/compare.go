package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Comparison holds two or more benchmark runs loaded for side-by-side review.
type Comparison struct {
	Names   []string
	Results []EvaluationResult
}

// LoadComparison reads benchmark result files in order. At least two are
// required.
func LoadComparison(paths []string) (*Comparison, error) {
	if len(paths) < 2 {
		return nil, fmt.Errorf("need at least 2 result files, got %d", len(paths))
	}

	c := &Comparison{}
	for _, path := range paths {
		r, err := LoadResult(path)
		if err != nil {
			return nil, err
		}
		c.Names = append(c.Names, filepath.Base(path))
		c.Results = append(c.Results, r)
	}
	return c, nil
}

// metricRow describes one compared metric. The label doubles as the polarity
// key: classification matches it against the fixed keyword tables below.
type metricRow struct {
	Label   string
	Extract func(EvaluationResult) float64
	Format  string
}

var comparedMetrics = []metricRow{
	{"Overall RAGAS", func(r EvaluationResult) float64 { return r.Ragas.RagasScore }, "%.3f"},
	{"Faithfulness", func(r EvaluationResult) float64 { return r.Ragas.Faithfulness }, "%.3f"},
	{"Answer Relevancy", func(r EvaluationResult) float64 { return r.Ragas.AnswerRelevancy }, "%.3f"},
	{"Context Precision", func(r EvaluationResult) float64 { return r.Ragas.ContextPrecision }, "%.3f"},
	{"Context Recall", func(r EvaluationResult) float64 { return r.Ragas.ContextRecall }, "%.3f"},
	{"MRR", func(r EvaluationResult) float64 { return r.Ranking.MRR }, "%.3f"},
	{"Hit Rate@1", func(r EvaluationResult) float64 { return r.Ranking.HitRate1 }, "%.3f"},
	{"Hit Rate@5", func(r EvaluationResult) float64 { return r.Ranking.HitRate5 }, "%.3f"},
	{"Hit Rate@10", func(r EvaluationResult) float64 { return r.Ranking.HitRate10 }, "%.3f"},
	{"Avg Latency (ms)", func(r EvaluationResult) float64 { return r.Latency.AvgMs }, "%.1f"},
	{"P95 Latency (ms)", func(r EvaluationResult) float64 { return r.Latency.P95Ms }, "%.1f"},
	{"Total Tokens", func(r EvaluationResult) float64 { return float64(r.Cost.TotalTokens) }, "%.0f"},
	{"Total Cost (USD)", func(r EvaluationResult) float64 { return r.Cost.EstimatedCostUSD }, "%.4f"},
}

// Polarity keyword tables. A label matching a higher-is-better keyword treats
// a positive delta as improvement; the lower-is-better table inverts that.
var (
	higherIsBetter = []string{"RAGAS", "Faithfulness", "Relevancy", "Precision", "Recall", "MRR", "Hit Rate"}
	lowerIsBetter  = []string{"Latency", "Cost", "Tokens"}
)

// isImprovement classifies a metric delta using the keyword polarity tables.
// Unmatched labels default to higher-is-better.
func isImprovement(label string, change float64) bool {
	for _, kw := range higherIsBetter {
		if strings.Contains(label, kw) {
			return change > 0
		}
	}
	for _, kw := range lowerIsBetter {
		if strings.Contains(label, kw) {
			return change < 0
		}
	}
	return change > 0
}

// PrintComparison renders a side-by-side metric table. Delta is always first
// run to last run.
func (c *Comparison) PrintComparison(w io.Writer) {
	improved := color.New(color.FgGreen)
	degraded := color.New(color.FgRed)
	rule := strings.Repeat("-", 24+16*len(c.Results)+24)

	fmt.Fprintf(w, "%-24s", "Metric")
	for i := range c.Results {
		fmt.Fprintf(w, "%16s", fmt.Sprintf("Run %d", i+1))
	}
	fmt.Fprintf(w, "%24s\n", "Change")
	fmt.Fprintln(w, rule)

	for _, m := range comparedMetrics {
		fmt.Fprintf(w, "%-24s", m.Label)

		var first, last float64
		for i, r := range c.Results {
			v := m.Extract(r)
			if i == 0 {
				first = v
			}
			last = v
			fmt.Fprintf(w, "%16s", fmt.Sprintf(m.Format, v))
		}

		change := last - first
		pct := 0.0
		if first != 0 {
			pct = change / first * 100
		}
		cell := fmt.Sprintf("%s (%+.1f%%)", fmt.Sprintf(m.Format, change), pct)
		switch {
		case change == 0:
			fmt.Fprintf(w, "%24s\n", cell)
		case isImprovement(m.Label, change):
			improved.Fprintf(w, "%24s\n", cell)
		default:
			degraded.Fprintf(w, "%24s\n", cell)
		}
	}
}

// comparisonExport is the persisted JSON shape of a comparison.
type comparisonExport struct {
	Runs    []comparisonRun   `json:"runs"`
	Summary comparisonSummary `json:"summary"`
}

type comparisonRun struct {
	Name   string       `json:"name"`
	Result resultExport `json:"result"`
}

type comparisonSummary struct {
	NumRuns              int     `json:"num_runs"`
	RagasImprovement     float64 `json:"ragas_improvement"`
	MRRImprovement       float64 `json:"mrr_improvement"`
	LatencyImprovementMs float64 `json:"latency_improvement_ms"`
	CostReductionUSD     float64 `json:"cost_reduction_usd"`
}

// Export writes the comparison, including a first-to-last summary, to path.
func (c *Comparison) Export(path string) error {
	first, last := c.Results[0], c.Results[len(c.Results)-1]

	export := comparisonExport{
		Summary: comparisonSummary{
			NumRuns:              len(c.Results),
			RagasImprovement:     last.Ragas.RagasScore - first.Ragas.RagasScore,
			MRRImprovement:       last.Ranking.MRR - first.Ranking.MRR,
			LatencyImprovementMs: first.Latency.AvgMs - last.Latency.AvgMs,
			CostReductionUSD:     first.Cost.EstimatedCostUSD - last.Cost.EstimatedCostUSD,
		},
	}
	for i, r := range c.Results {
		export.Runs = append(export.Runs, comparisonRun{Name: c.Names[i], Result: toExport(r)})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write comparison: %w", err)
	}
	return nil
}
