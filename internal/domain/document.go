package domain

import (
	"time"

	"github.com/google/uuid"
)

// Corpus identifies which document collection a request targets.
type Corpus string

const (
	// CorpusArxiv is the arXiv papers corpus.
	CorpusArxiv Corpus = "arxiv"
	// CorpusFinancial is the SEC filings corpus.
	CorpusFinancial Corpus = "financial"
)

// Paper is an arXiv paper stored in the catalog.
type Paper struct {
	ID         uuid.UUID
	ArxivID    string
	Title      string
	Authors    []string
	Abstract   string
	Categories []string
	Published  time.Time
	PDFURL     string
	FullText   string

	IndexedInSearch bool
	IndexingDate    time.Time
	ChunkCount      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FinancialDocument is a SEC filing stored in the catalog.
// AccessionNumber uniquely identifies a filing; ingestion upserts on it.
type FinancialDocument struct {
	ID           uuid.UUID
	CIK          string
	Ticker       string
	CompanyName  string
	DocumentType string // "10-K", "10-Q"
	FiscalYear   string
	FiscalPeriod string // "FY", "Q1".."Q4"
	FilingDate   time.Time

	AccessionNumber string
	FullText        string
	SourceURL       string

	ContentParsed bool
	ParsingDate   time.Time

	IndexedInSearch bool
	IndexingDate    time.Time
	ChunkCount      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is one sliding-window piece of a document's text.
type Chunk struct {
	Index     int
	Text      string
	WordCount int
	StartChar int
	EndChar   int
}

// ChunkDocument is a chunk prepared for the search index. Parent document
// metadata is denormalized so query-time results need no catalog join.
type ChunkDocument struct {
	ChunkID    string
	ChunkIndex int
	Text       string
	WordCount  int
	StartChar  int
	EndChar    int
	Embedding  []float32

	DocumentID string

	// Financial metadata.
	Ticker          string
	CompanyName     string
	CIK             string
	DocumentType    string
	FiscalYear      string
	FiscalPeriod    string
	FilingDate      time.Time
	AccessionNumber string

	// Paper metadata.
	ArxivID    string
	Title      string
	Abstract   string
	Authors    []string
	Categories []string
	PDFURL     string

	SectionTitle   string
	EmbeddingModel string
	CreatedAt      time.Time
}

// ChunkHit is one ranked result from the chunk index.
type ChunkHit struct {
	ChunkID      string
	Score        float64
	Text         string
	DocumentID   string
	ArxivID      string
	Title        string
	PDFURL       string
	Ticker       string
	CompanyName  string
	DocumentType string
	FilingDate   string
	SectionTitle string
	Highlights   []string
}

// SourceID returns the identifier used for ranking metrics: the arXiv id for
// papers, otherwise the catalog document id.
func (h ChunkHit) SourceID() string {
	if h.ArxivID != "" {
		return h.ArxivID
	}
	return h.DocumentID
}

// SearchFilters narrows a chunk search.
type SearchFilters struct {
	Categories  []string // arXiv categories
	Ticker      string   // financial: exact ticker
	FilingTypes []string // financial: "10-K", "10-Q"
}
