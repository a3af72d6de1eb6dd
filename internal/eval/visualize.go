package eval

import (
	"fmt"
	"html/template"
	"os"
)

// reportPage feeds the HTML template.
type reportPage struct {
	Runs []reportRun
}

type reportRun struct {
	Name    string
	Result  EvaluationResult
	Bars    []reportBar
	HitBars []reportBar
}

// reportBar is one bar in a chart; Width is a percentage of the track.
type reportBar struct {
	Label string
	Value string
	Width float64
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>RAG Benchmark Report</title>
<style>
  body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
  h1 { border-bottom: 2px solid #3f51b5; padding-bottom: .3rem; }
  h2 { margin-top: 2rem; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { border: 1px solid #ddd; padding: .45rem .7rem; text-align: left; }
  th { background: #f5f5f5; }
  .bar-row { display: flex; align-items: center; margin: .3rem 0; }
  .bar-label { width: 11rem; font-size: .85rem; }
  .bar-track { flex: 1; background: #eee; border-radius: 3px; height: 1.1rem; }
  .bar-fill { background: #3f51b5; height: 100%; border-radius: 3px; }
  .bar-value { width: 4.5rem; text-align: right; font-size: .85rem; padding-left: .5rem; }
</style>
</head>
<body>
<h1>RAG Benchmark Report</h1>
{{range .Runs}}
<h2>{{.Name}}</h2>
<table>
  <tr><th>Samples</th><th>Failed</th><th>MRR</th><th>Avg Latency (ms)</th><th>Total Tokens</th><th>Est. Cost (USD)</th></tr>
  <tr>
    <td>{{.Result.NumSamples}}</td>
    <td>{{.Result.FailedQueries}}</td>
    <td>{{printf "%.3f" .Result.Ranking.MRR}}</td>
    <td>{{printf "%.1f" .Result.Latency.AvgMs}}</td>
    <td>{{.Result.Cost.TotalTokens}}</td>
    <td>{{printf "%.4f" .Result.Cost.EstimatedCostUSD}}</td>
  </tr>
</table>
<h3>Answer quality</h3>
{{range .Bars}}
<div class="bar-row">
  <div class="bar-label">{{.Label}}</div>
  <div class="bar-track"><div class="bar-fill" style="width: {{printf "%.1f" .Width}}%"></div></div>
  <div class="bar-value">{{.Value}}</div>
</div>
{{end}}
<h3>Hit rate</h3>
{{range .HitBars}}
<div class="bar-row">
  <div class="bar-label">{{.Label}}</div>
  <div class="bar-track"><div class="bar-fill" style="width: {{printf "%.1f" .Width}}%"></div></div>
  <div class="bar-value">{{.Value}}</div>
</div>
{{end}}
{{end}}
</body>
</html>
`))

// WriteHTMLReport renders one or more benchmark runs into a static HTML file.
func WriteHTMLReport(path string, names []string, results []EvaluationResult) error {
	if len(names) != len(results) {
		return fmt.Errorf("got %d names for %d results", len(names), len(results))
	}

	page := reportPage{}
	for i, r := range results {
		page.Runs = append(page.Runs, reportRun{
			Name:   names[i],
			Result: r,
			Bars: []reportBar{
				scoreBar("Overall RAGAS", r.Ragas.RagasScore),
				scoreBar("Faithfulness", r.Ragas.Faithfulness),
				scoreBar("Answer Relevancy", r.Ragas.AnswerRelevancy),
				scoreBar("Context Precision", r.Ragas.ContextPrecision),
				scoreBar("Context Recall", r.Ragas.ContextRecall),
			},
			HitBars: []reportBar{
				scoreBar("Hit Rate@1", r.Ranking.HitRate1),
				scoreBar("Hit Rate@3", r.Ranking.HitRate3),
				scoreBar("Hit Rate@5", r.Ranking.HitRate5),
				scoreBar("Hit Rate@10", r.Ranking.HitRate10),
			},
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, page); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// scoreBar scales a [0, 1] metric onto the bar track.
func scoreBar(label string, value float64) reportBar {
	width := value * 100
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	return reportBar{Label: label, Value: fmt.Sprintf("%.3f", value), Width: width}
}
