package index

import (
	"time"

	"github.com/curator-labs/curator/internal/domain"
)

// chunkSource is the wire shape of a chunk in the search index. Field names
// match the index mapping exactly (dynamic is strict).
type chunkSource struct {
	ChunkID        string    `json:"chunk_id"`
	ChunkIndex     int       `json:"chunk_index"`
	ChunkText      string    `json:"chunk_text"`
	ChunkWordCount int       `json:"chunk_word_count"`
	StartChar      int       `json:"start_char"`
	EndChar        int       `json:"end_char"`
	Embedding      []float32 `json:"embedding,omitempty"`

	DocumentID string `json:"document_id"`

	TickerSymbol    string `json:"ticker_symbol,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	CIK             string `json:"cik,omitempty"`
	DocumentType    string `json:"document_type,omitempty"`
	FiscalYear      string `json:"fiscal_year,omitempty"`
	FiscalPeriod    string `json:"fiscal_period,omitempty"`
	FilingDate      string `json:"filing_date,omitempty"`
	AccessionNumber string `json:"accession_number,omitempty"`

	ArxivID    string   `json:"arxiv_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Categories []string `json:"categories,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`

	SectionTitle   string `json:"section_title,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func toSource(doc domain.ChunkDocument) chunkSource {
	src := chunkSource{
		ChunkID:        doc.ChunkID,
		ChunkIndex:     doc.ChunkIndex,
		ChunkText:      doc.Text,
		ChunkWordCount: doc.WordCount,
		StartChar:      doc.StartChar,
		EndChar:        doc.EndChar,
		Embedding:      doc.Embedding,

		DocumentID: doc.DocumentID,

		TickerSymbol:    doc.Ticker,
		CompanyName:     doc.CompanyName,
		CIK:             doc.CIK,
		DocumentType:    doc.DocumentType,
		FiscalYear:      doc.FiscalYear,
		FiscalPeriod:    doc.FiscalPeriod,
		AccessionNumber: doc.AccessionNumber,

		ArxivID:    doc.ArxivID,
		Title:      doc.Title,
		Abstract:   doc.Abstract,
		Authors:    doc.Authors,
		Categories: doc.Categories,
		PDFURL:     doc.PDFURL,

		SectionTitle:   doc.SectionTitle,
		EmbeddingModel: doc.EmbeddingModel,
	}
	if !doc.FilingDate.IsZero() {
		src.FilingDate = doc.FilingDate.Format("2006-01-02")
	}
	if !doc.CreatedAt.IsZero() {
		src.CreatedAt = doc.CreatedAt.Format(time.RFC3339)
	}
	return src
}

func (s chunkSource) toHit() domain.ChunkHit {
	return domain.ChunkHit{
		ChunkID:      s.ChunkID,
		Text:         s.ChunkText,
		DocumentID:   s.DocumentID,
		ArxivID:      s.ArxivID,
		Title:        s.Title,
		PDFURL:       s.PDFURL,
		Ticker:       s.TickerSymbol,
		CompanyName:  s.CompanyName,
		DocumentType: s.DocumentType,
		FilingDate:   s.FilingDate,
		SectionTitle: s.SectionTitle,
	}
}
