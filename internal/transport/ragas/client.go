// Package ragas calls an external answer-quality scoring service.
package ragas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sample is one question/answer pair with its retrieval context.
type Sample struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Contexts    []string `json:"contexts"`
	GroundTruth string   `json:"ground_truth"`
}

// Scores holds the four quality metrics plus their mean, all in [0, 1].
type Scores struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
	RagasScore       float64 `json:"ragas_score"`
}

// Client talks to the scorer service. Scoring runs LLM judges server-side,
// so the timeout is generous.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// Config holds scorer service settings.
type Config struct {
	URL     string // empty disables scoring
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a scorer client. Returns nil when no URL is configured;
// callers treat a nil client as scoring disabled.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		logger:     cfg.Logger,
	}
}

// Score evaluates the samples. Any failure returns zero scores together with
// the error; callers log loudly and continue, a benchmark run must never die
// on the scorer.
func (c *Client) Score(ctx context.Context, samples []Sample) (Scores, error) {
	payload, err := json.Marshal(map[string]any{"samples": samples})
	if err != nil {
		return Scores{}, fmt.Errorf("marshal samples: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Scores{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Scores{}, fmt.Errorf("scorer request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Scores{}, fmt.Errorf("read scorer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Scores{}, fmt.Errorf("scorer status %d: %s", resp.StatusCode, body)
	}

	scores, err := parseScores(body)
	if err != nil {
		return Scores{}, err
	}

	c.logger.Info("Scored benchmark samples",
		zap.Int("samples", len(samples)),
		zap.Float64("ragas_score", scores.RagasScore))
	return scores, nil
}

// parseScores accepts the three response shapes scorer deployments produce:
// a flat metric map, metrics nested under "scores", or per-sample rows under
// "results" which get averaged.
func parseScores(body []byte) (Scores, error) {
	var envelope struct {
		Scores  *metricMap  `json:"scores"`
		Results []metricMap `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Scores{}, fmt.Errorf("decode scorer response: %w", err)
	}

	switch {
	case envelope.Scores != nil:
		return envelope.Scores.toScores(), nil
	case len(envelope.Results) > 0:
		return averageRows(envelope.Results), nil
	}

	var flat metricMap
	if err := json.Unmarshal(body, &flat); err != nil {
		return Scores{}, fmt.Errorf("decode scorer response: %w", err)
	}
	if flat.isEmpty() {
		return Scores{}, fmt.Errorf("scorer response has no recognized metrics: %s", body)
	}
	return flat.toScores(), nil
}

type metricMap struct {
	Faithfulness     *float64 `json:"faithfulness"`
	AnswerRelevancy  *float64 `json:"answer_relevancy"`
	ContextPrecision *float64 `json:"context_precision"`
	ContextRecall    *float64 `json:"context_recall"`
	RagasScore       *float64 `json:"ragas_score"`
}

func (m metricMap) isEmpty() bool {
	return m.Faithfulness == nil && m.AnswerRelevancy == nil &&
		m.ContextPrecision == nil && m.ContextRecall == nil && m.RagasScore == nil
}

func (m metricMap) toScores() Scores {
	s := Scores{
		Faithfulness:     deref(m.Faithfulness),
		AnswerRelevancy:  deref(m.AnswerRelevancy),
		ContextPrecision: deref(m.ContextPrecision),
		ContextRecall:    deref(m.ContextRecall),
	}
	if m.RagasScore != nil {
		s.RagasScore = *m.RagasScore
	} else {
		s.RagasScore = (s.Faithfulness + s.AnswerRelevancy + s.ContextPrecision + s.ContextRecall) / 4
	}
	return s
}

func averageRows(rows []metricMap) Scores {
	var sum Scores
	for _, row := range rows {
		s := row.toScores()
		sum.Faithfulness += s.Faithfulness
		sum.AnswerRelevancy += s.AnswerRelevancy
		sum.ContextPrecision += s.ContextPrecision
		sum.ContextRecall += s.ContextRecall
	}
	n := float64(len(rows))
	avg := Scores{
		Faithfulness:     sum.Faithfulness / n,
		AnswerRelevancy:  sum.AnswerRelevancy / n,
		ContextPrecision: sum.ContextPrecision / n,
		ContextRecall:    sum.ContextRecall / n,
	}
	avg.RagasScore = (avg.Faithfulness + avg.AnswerRelevancy + avg.ContextPrecision + avg.ContextRecall) / 4
	return avg
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
