package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// resultExport is the persisted JSON shape of an EvaluationResult.
type resultExport struct {
	Summary struct {
		NumSamples    int `json:"num_samples"`
		FailedQueries int `json:"failed_queries"`
	} `json:"summary"`
	RagasScores    RagasScores    `json:"ragas_scores"`
	RankingMetrics RankingMetrics `json:"ranking_metrics"`
	LatencyMetrics LatencyMetrics `json:"latency_metrics"`
	CostMetrics    CostMetrics    `json:"cost_metrics"`
}

func toExport(r EvaluationResult) resultExport {
	var e resultExport
	e.Summary.NumSamples = r.NumSamples
	e.Summary.FailedQueries = r.FailedQueries
	e.RagasScores = r.Ragas
	e.RankingMetrics = r.Ranking
	e.LatencyMetrics = r.Latency
	e.CostMetrics = r.Cost
	return e
}

func fromExport(e resultExport) EvaluationResult {
	return EvaluationResult{
		NumSamples:    e.Summary.NumSamples,
		FailedQueries: e.Summary.FailedQueries,
		Ragas:         e.RagasScores,
		Ranking:       e.RankingMetrics,
		Latency:       e.LatencyMetrics,
		Cost:          e.CostMetrics,
	}
}

// ExportResult writes the result to path as indented JSON.
func ExportResult(r EvaluationResult, path string) error {
	data, err := json.MarshalIndent(toExport(r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// LoadResult reads a result previously written by ExportResult.
func LoadResult(path string) (EvaluationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("read result: %w", err)
	}
	var e resultExport
	if err := json.Unmarshal(data, &e); err != nil {
		return EvaluationResult{}, fmt.Errorf("decode result %s: %w", path, err)
	}
	return fromExport(e), nil
}

// LoadDataset reads a benchmark question set from a JSON file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return ds, nil
}

// SaveDataset writes a dataset as indented JSON.
func SaveDataset(ds Dataset, path string) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
