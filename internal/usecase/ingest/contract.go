package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/transport/arxiv"
	"github.com/curator-labs/curator/internal/transport/sec"
)

// PaperCatalog defines the catalog contract for arXiv papers.
type PaperCatalog interface {
	UpsertPaper(ctx context.Context, p domain.Paper) (domain.Paper, bool, error)
	ListUnindexedPapers(ctx context.Context, limit int) ([]domain.Paper, error)
	MarkPaperIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error
}

// FilingCatalog defines the catalog contract for SEC filings.
type FilingCatalog interface {
	CreateFinancial(ctx context.Context, d domain.FinancialDocument) (domain.FinancialDocument, error)
	GetFinancialByAccession(ctx context.Context, accession string) (domain.FinancialDocument, error)
	ListUnindexedFinancial(ctx context.Context, limit int) ([]domain.FinancialDocument, error)
	MarkFinancialIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error
}

// ChunkIndex defines the search index contract for chunk writes.
type ChunkIndex interface {
	BulkIndexChunks(ctx context.Context, corpus domain.Corpus, docs []domain.ChunkDocument) (int, error)
	DeleteDocumentChunks(ctx context.Context, corpus domain.Corpus, documentID string) (int, error)
}

// PaperLister fetches paper metadata and full text from arXiv.
type PaperLister interface {
	FetchPapers(ctx context.Context, q arxiv.Query) ([]domain.Paper, error)
	DownloadFullText(ctx context.Context, p domain.Paper) (string, error)
}

// FilingFetcher fetches filing lists and content from EDGAR.
type FilingFetcher interface {
	Fetch10K(ctx context.Context, ticker string, count int) ([]sec.Filing, error)
	Fetch10Q(ctx context.Context, ticker string, count int) ([]sec.Filing, error)
	DownloadFilingContent(ctx context.Context, sourceURL string) (string, error)
}

// Chunker splits text into overlapping windows.
type Chunker interface {
	Split(text string) []domain.Chunk
}
