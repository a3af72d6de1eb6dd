package llm

import (
	"strings"
	"testing"

	"github.com/curator-labs/curator/internal/domain"
)

func TestBuildRAGPrompt_Arxiv(t *testing.T) {
	chunks := []domain.ChunkHit{
		{ArxivID: "1706.03762", Text: "Attention mechanisms allow modeling of dependencies."},
		{ArxivID: "1810.04805", Text: "BERT pretrains deep bidirectional representations."},
	}

	prompt := BuildRAGPrompt("What is attention?", chunks, domain.CorpusArxiv)

	if !strings.Contains(prompt, "### Context from Papers:") {
		t.Error("missing papers context header")
	}
	if !strings.Contains(prompt, "[1. arXiv:1706.03762]") {
		t.Error("missing first chunk citation header")
	}
	if !strings.Contains(prompt, "[2. arXiv:1810.04805]") {
		t.Error("missing second chunk citation header")
	}
	if !strings.Contains(prompt, "### Question:\nWhat is attention?") {
		t.Error("missing question section")
	}
	if !strings.Contains(prompt, "[arXiv:id] format") {
		t.Error("missing citation instruction")
	}
}

func TestBuildRAGPrompt_Financial(t *testing.T) {
	chunks := []domain.ChunkHit{
		{
			Ticker:       "AAPL",
			CompanyName:  "Apple Inc.",
			DocumentType: "10-K",
			FilingDate:   "2024-11-01",
			Text:         "Net sales increased 2 percent.",
		},
	}

	prompt := BuildRAGPrompt("How did Apple perform?", chunks, domain.CorpusFinancial)

	if !strings.Contains(prompt, "### Context from SEC Filings:") {
		t.Error("missing filings context header")
	}
	if !strings.Contains(prompt, "[1. AAPL - Apple Inc. 10-K filed 2024-11-01]") {
		t.Error("missing filing metadata header")
	}
	if !strings.Contains(prompt, "[AAPL 10-K]") {
		t.Error("missing citation example")
	}
}

func TestExtractCitations(t *testing.T) {
	arxivAnswer := "Transformers were introduced in [arXiv:1706.03762] and refined in " +
		"[arXiv:1810.04805]. See [arXiv:1706.03762] again."
	got := ExtractCitations(arxivAnswer, domain.CorpusArxiv)
	want := []string{"[arXiv:1706.03762]", "[arXiv:1810.04805]"}
	if len(got) != len(want) {
		t.Fatalf("citations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("citation[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	finAnswer := "Apple reported growth [AAPL 10-K] while Microsoft noted risks [MSFT 10-Q]."
	got = ExtractCitations(finAnswer, domain.CorpusFinancial)
	if len(got) != 2 || got[0] != "[AAPL 10-K]" || got[1] != "[MSFT 10-Q]" {
		t.Errorf("financial citations = %v", got)
	}
}

func TestSourceIDs_DeduplicatesInRankOrder(t *testing.T) {
	chunks := []domain.ChunkHit{
		{ArxivID: "1706.03762"},
		{DocumentID: "doc-1"},
		{ArxivID: "1706.03762"},
		{DocumentID: "doc-2"},
	}

	got := sourceIDs(chunks)
	want := []string{"1706.03762", "doc-1", "doc-2"}
	if len(got) != len(want) {
		t.Fatalf("sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
