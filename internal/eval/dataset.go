package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// seedQueries spread sampled papers across topics.
var seedQueries = []string{
	"machine learning",
	"neural networks",
	"deep learning",
	"computer vision",
	"natural language processing",
}

// QAGenerator produces one question/answer pair from a paper.
type QAGenerator interface {
	GenerateQA(ctx context.Context, title, abstract string) (question, answer string, err error)
}

// DatasetGenerator builds evaluation datasets by sampling indexed papers over
// the search API and asking an LLM for a QA pair per paper.
type DatasetGenerator struct {
	httpClient *http.Client
	baseURL    string
	qa         QAGenerator
	logger     *zap.Logger
}

// NewDatasetGenerator creates a dataset generator against a running API.
func NewDatasetGenerator(baseURL string, qa QAGenerator, logger *zap.Logger) *DatasetGenerator {
	return &DatasetGenerator{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		qa:         qa,
		logger:     logger,
	}
}

type sampledPaper struct {
	ArxivID  string
	Title    string
	Abstract string
}

// Generate samples up to numPairs papers and produces a dataset. A paper
// whose QA generation fails is skipped and logged.
func (g *DatasetGenerator) Generate(ctx context.Context, numPairs int, categories []string) (Dataset, error) {
	papers, err := g.samplePapers(ctx, numPairs, categories)
	if err != nil {
		return Dataset{}, err
	}
	if len(papers) == 0 {
		return Dataset{}, fmt.Errorf("no papers found to build a dataset from")
	}

	var ds Dataset
	for _, paper := range papers {
		question, answer, err := g.qa.GenerateQA(ctx, paper.Title, paper.Abstract)
		if err != nil {
			g.logger.Warn("Failed to generate QA pair",
				zap.String("arxiv_id", paper.ArxivID), zap.Error(err))
			continue
		}
		ds.Questions = append(ds.Questions, question)
		ds.GroundTruths = append(ds.GroundTruths, answer)
		ds.RelevantDocIDs = append(ds.RelevantDocIDs, []string{paper.ArxivID})
		ds.GroundTruthContexts = append(ds.GroundTruthContexts, []string{paper.Abstract})
	}

	g.logger.Info("Dataset generated",
		zap.Int("requested", numPairs), zap.Int("pairs", len(ds.Questions)))
	return ds, nil
}

// samplePapers runs the seed queries against the search API, deduplicating by
// arXiv id, until numPapers distinct papers are collected.
func (g *DatasetGenerator) samplePapers(ctx context.Context, numPapers int, categories []string) ([]sampledPaper, error) {
	perQuery := numPapers/len(seedQueries) + 1
	seen := make(map[string]bool)
	var papers []sampledPaper

	for _, query := range seedQueries {
		hits, err := g.search(ctx, query, perQuery, categories)
		if err != nil {
			g.logger.Warn("Seed query failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, h := range hits {
			if h.ArxivID == "" || seen[h.ArxivID] {
				continue
			}
			seen[h.ArxivID] = true
			papers = append(papers, h)
			if len(papers) >= numPapers {
				return papers, nil
			}
		}
	}
	return papers, nil
}

func (g *DatasetGenerator) search(ctx context.Context, query string, size int, categories []string) ([]sampledPaper, error) {
	payload, err := json.Marshal(map[string]any{
		"query":      query,
		"size":       size,
		"use_hybrid": true,
		"categories": categories,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/hybrid-search/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Hits []struct {
			ArxivID   string `json:"arxiv_id"`
			Title     string `json:"title"`
			ChunkText string `json:"chunk_text"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	papers := make([]sampledPaper, 0, len(result.Hits))
	for _, h := range result.Hits {
		papers = append(papers, sampledPaper{
			ArxivID:  h.ArxivID,
			Title:    h.Title,
			Abstract: h.ChunkText,
		})
	}
	return papers, nil
}

// OpenAIQAGenerator asks a chat model for a QA pair grounded in a paper.
type OpenAIQAGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIQAGenerator creates a QA generator.
func NewOpenAIQAGenerator(apiKey, model string) *OpenAIQAGenerator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIQAGenerator{client: openai.NewClient(apiKey), model: model}
}

const qaPromptFormat = `Based on this research paper, generate ONE specific question that a researcher might ask, along with a detailed answer.

Title: %s
Abstract: %s

Generate a question that:
1. Is specific and answerable from the abstract
2. Would be useful for evaluating a RAG system
3. Requires understanding of the paper's content

Return ONLY valid JSON in this format:
{"question": "Your question here", "answer": "Detailed answer here"}`

// GenerateQA produces one question/answer pair from a paper abstract.
func (g *OpenAIQAGenerator) GenerateQA(ctx context.Context, title, abstract string) (string, string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful research assistant."},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(qaPromptFormat, title, abstract)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", "", fmt.Errorf("qa generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("qa generation returned no choices")
	}

	var pair struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &pair); err != nil {
		return "", "", fmt.Errorf("decode qa pair %q: %w", content, err)
	}
	if pair.Question == "" || pair.Answer == "" {
		return "", "", fmt.Errorf("qa pair incomplete: %s", content)
	}
	return pair.Question, pair.Answer, nil
}
