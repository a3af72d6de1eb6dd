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
)

// APIPipeline drives a running curator API as the pipeline under test.
type APIPipeline struct {
	httpClient *http.Client
	baseURL    string
	corpus     string
	topK       int
	useHybrid  bool
}

// APIPipelineConfig holds benchmark target settings.
type APIPipelineConfig struct {
	BaseURL   string
	Corpus    string // "arxiv" or "financial"
	TopK      int
	UseHybrid bool
	Timeout   time.Duration
}

// NewAPIPipeline creates a pipeline that asks questions over HTTP.
func NewAPIPipeline(cfg APIPipelineConfig) *APIPipeline {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &APIPipeline{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		corpus:     cfg.Corpus,
		topK:       topK,
		useHybrid:  cfg.UseHybrid,
	}
}

type askRequest struct {
	Query        string `json:"query"`
	DocumentType string `json:"document_type"`
	TopK         int    `json:"top_k"`
	UseHybrid    bool   `json:"use_hybrid"`
}

type askResponse struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	ContextChunks []struct {
		ChunkID      string `json:"chunk_id"`
		ChunkText    string `json:"chunk_text"`
		DocumentID   string `json:"document_id"`
		ArxivID      string `json:"arxiv_id"`
		Title        string `json:"title"`
		PDFURL       string `json:"pdf_url"`
		SectionTitle string `json:"section_title"`
	} `json:"context_chunks"`
	TokensUsed int    `json:"tokens_used"`
	ModelUsed  string `json:"model_used"`
}

// Ask sends one question to the /ask endpoint and converts the reply into a
// benchmark response. Latency covers the full round trip.
func (p *APIPipeline) Ask(ctx context.Context, question string) (RAGResponse, error) {
	payload, err := json.Marshal(askRequest{
		Query:        question,
		DocumentType: p.corpus,
		TopK:         p.topK,
		UseHybrid:    p.useHybrid,
	})
	if err != nil {
		return RAGResponse{}, fmt.Errorf("marshal ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ask", bytes.NewReader(payload))
	if err != nil {
		return RAGResponse{}, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return RAGResponse{}, fmt.Errorf("ask request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return RAGResponse{}, fmt.Errorf("read ask response: %w", err)
	}
	latency := float64(time.Since(start).Microseconds()) / 1000

	if resp.StatusCode != http.StatusOK {
		return RAGResponse{}, fmt.Errorf("ask status %d: %s", resp.StatusCode, body)
	}

	var answer askResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		return RAGResponse{}, fmt.Errorf("decode ask response: %w", err)
	}

	out := RAGResponse{
		Answer:     answer.Answer,
		LatencyMs:  latency,
		TokensUsed: answer.TokensUsed,
		ModelUsed:  answer.ModelUsed,
	}
	for _, chunk := range answer.ContextChunks {
		if chunk.ChunkText != "" {
			out.Contexts = append(out.Contexts, chunk.ChunkText)
		}
		id := chunk.ArxivID
		if id == "" {
			id = chunk.DocumentID
		}
		out.SourceDocuments = append(out.SourceDocuments, SourceDocument{
			ID:      id,
			Title:   chunk.Title,
			URL:     chunk.PDFURL,
			ChunkID: chunk.ChunkID,
			Section: chunk.SectionTitle,
		})
	}
	return out, nil
}
