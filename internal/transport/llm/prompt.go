// Package llm implements answer generation over retrieved chunks using
// OpenAI-compatible (OpenAI, Ollama) or Gemini backends.
package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/curator-labs/curator/internal/domain"
)

const arxivSystemPrompt = "You are an AI assistant specialized in answering questions about " +
	"academic papers from arXiv. Base your answer STRICTLY on the provided " +
	"paper excerpts."

const financialSystemPrompt = "You are an AI assistant specialized in answering questions about " +
	"SEC financial filings (10-K, 10-Q reports). Base your answer STRICTLY on " +
	"the provided filing excerpts. Provide factual, data-driven responses."

// BuildRAGPrompt renders the grounding prompt for a query and its retrieved
// chunks. Papers are cited by arXiv id, filings by ticker and filing type.
func BuildRAGPrompt(query string, chunks []domain.ChunkHit, corpus domain.Corpus) string {
	var sb strings.Builder

	if corpus == domain.CorpusFinancial {
		sb.WriteString(financialSystemPrompt)
		sb.WriteString("\n\n### Context from SEC Filings:\n\n")
		for i, chunk := range chunks {
			fmt.Fprintf(&sb, "[%d. %s - %s %s filed %s]\n%s\n\n",
				i+1, chunk.Ticker, chunk.CompanyName, chunk.DocumentType, chunk.FilingDate, chunk.Text)
		}
		fmt.Fprintf(&sb, "### Question:\n%s\n\n", query)
		sb.WriteString("### Answer:\nProvide a factual, data-driven response citing specific " +
			"companies and filing types (e.g., [AAPL 10-K]).\n\n")
		return sb.String()
	}

	sb.WriteString(arxivSystemPrompt)
	sb.WriteString("\n\n### Context from Papers:\n\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "[%d. arXiv:%s]\n%s\n\n", i+1, chunk.ArxivID, chunk.Text)
	}
	fmt.Fprintf(&sb, "### Question:\n%s\n\n", query)
	sb.WriteString("### Answer:\nProvide a natural, conversational response (not JSON) " +
		"and cite sources using [arXiv:id] format.\n\n")
	return sb.String()
}

var (
	arxivCitationRe     = regexp.MustCompile(`\[arXiv:([^\]\s]+)\]`)
	financialCitationRe = regexp.MustCompile(`\[([A-Z]{1,6})\s+(10-[KQ])\]`)
)

// ExtractCitations pulls bracketed citations out of a generated answer.
func ExtractCitations(answer string, corpus domain.Corpus) []string {
	var (
		matches [][]string
		seen    = map[string]bool{}
		out     []string
	)
	if corpus == domain.CorpusFinancial {
		matches = financialCitationRe.FindAllStringSubmatch(answer, -1)
	} else {
		matches = arxivCitationRe.FindAllStringSubmatch(answer, -1)
	}
	for _, m := range matches {
		citation := m[0]
		if !seen[citation] {
			seen[citation] = true
			out = append(out, citation)
		}
	}
	return out
}

// sourceIDs lists the distinct source documents behind the chunks, in rank order.
func sourceIDs(chunks []domain.ChunkHit) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range chunks {
		id := c.SourceID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
