package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/metrics"
)

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Documents     int
	ChunksIndexed int
	TokensUsed    int
	Failed        int
}

// Indexer moves unindexed catalog documents into the search index:
// chunk, embed, bulk index, mark indexed.
type Indexer struct {
	papers         PaperCatalog
	filings        FilingCatalog
	index          ChunkIndex
	embedder       domain.PassageEmbedder
	chunker        Chunker
	batchSize      int
	embeddingModel string
	logger         *zap.Logger
}

// IndexerConfig holds indexing pipeline settings.
type IndexerConfig struct {
	Papers         PaperCatalog
	Filings        FilingCatalog
	Index          ChunkIndex
	Embedder       domain.PassageEmbedder
	Chunker        Chunker
	BatchSize      int // passages per embedding API call
	EmbeddingModel string
	Logger         *zap.Logger
}

// NewIndexer creates an indexing pipeline.
func NewIndexer(cfg IndexerConfig) *Indexer {
	return &Indexer{
		papers:         cfg.Papers,
		filings:        cfg.Filings,
		index:          cfg.Index,
		embedder:       cfg.Embedder,
		chunker:        cfg.Chunker,
		batchSize:      cfg.BatchSize,
		embeddingModel: cfg.EmbeddingModel,
		logger:         cfg.Logger,
	}
}

// IndexPending indexes up to limit unindexed documents of the corpus. A
// document that fails is logged and skipped; the run continues.
func (x *Indexer) IndexPending(ctx context.Context, corpus domain.Corpus, limit int) (IndexStats, error) {
	var stats IndexStats

	switch corpus {
	case domain.CorpusArxiv:
		papers, err := x.papers.ListUnindexedPapers(ctx, limit)
		if err != nil {
			return stats, fmt.Errorf("list unindexed papers: %w", err)
		}
		for _, p := range papers {
			x.indexOne(ctx, corpus, paperIndexable{p}, &stats)
		}
	case domain.CorpusFinancial:
		docs, err := x.filings.ListUnindexedFinancial(ctx, limit)
		if err != nil {
			return stats, fmt.Errorf("list unindexed filings: %w", err)
		}
		for _, d := range docs {
			x.indexOne(ctx, corpus, filingIndexable{d}, &stats)
		}
	default:
		return stats, fmt.Errorf("corpus %q: %w", corpus, domain.ErrInvalidRequest)
	}

	x.logger.Info("Indexing run finished",
		zap.String("corpus", string(corpus)),
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.ChunksIndexed),
		zap.Int("tokens", stats.TokensUsed),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (x *Indexer) indexOne(ctx context.Context, corpus domain.Corpus, doc indexable, stats *IndexStats) {
	chunks := x.chunker.Split(doc.fullText())
	if len(chunks) == 0 {
		stats.Failed++
		x.logger.Warn("Document produced no chunks",
			zap.String("corpus", string(corpus)),
			zap.String("document_id", doc.id().String()))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, tokens, err := x.embedder.EmbedPassages(ctx, texts, x.batchSize)
	if err != nil {
		stats.Failed++
		x.logger.Warn("Failed to embed document chunks",
			zap.String("document_id", doc.id().String()), zap.Error(err))
		return
	}
	stats.TokensUsed += tokens

	now := time.Now().UTC()
	chunkDocs := make([]domain.ChunkDocument, len(chunks))
	for i, chunk := range chunks {
		cd := doc.baseChunkDocument()
		cd.ChunkID = fmt.Sprintf("%s_chunk_%d", doc.id(), chunk.Index)
		cd.ChunkIndex = chunk.Index
		cd.Text = chunk.Text
		cd.WordCount = chunk.WordCount
		cd.StartChar = chunk.StartChar
		cd.EndChar = chunk.EndChar
		cd.Embedding = vectors[i]
		cd.EmbeddingModel = x.embeddingModel
		cd.CreatedAt = now
		chunkDocs[i] = cd
	}

	// Drop stale chunks from any previous indexing of this document.
	if _, err := x.index.DeleteDocumentChunks(ctx, corpus, doc.id().String()); err != nil {
		x.logger.Warn("Failed to delete stale chunks",
			zap.String("document_id", doc.id().String()), zap.Error(err))
	}

	indexed, err := x.index.BulkIndexChunks(ctx, corpus, chunkDocs)
	if err != nil {
		stats.Failed++
		x.logger.Warn("Failed to index chunks",
			zap.String("document_id", doc.id().String()), zap.Error(err))
		return
	}

	if err := doc.markIndexed(ctx, x, indexed); err != nil {
		stats.Failed++
		x.logger.Warn("Failed to mark document indexed",
			zap.String("document_id", doc.id().String()), zap.Error(err))
		return
	}

	stats.Documents++
	stats.ChunksIndexed += indexed
	metrics.IngestChunksIndexedTotal.WithLabelValues(string(corpus)).Add(float64(indexed))
}

// indexable abstracts the two catalog document types for the pipeline.
type indexable interface {
	id() uuid.UUID
	fullText() string
	baseChunkDocument() domain.ChunkDocument
	markIndexed(ctx context.Context, x *Indexer, chunkCount int) error
}

type paperIndexable struct {
	p domain.Paper
}

func (a paperIndexable) id() uuid.UUID    { return a.p.ID }
func (a paperIndexable) fullText() string { return a.p.FullText }

func (a paperIndexable) baseChunkDocument() domain.ChunkDocument {
	return domain.ChunkDocument{
		DocumentID: a.p.ID.String(),
		ArxivID:    a.p.ArxivID,
		Title:      a.p.Title,
		Abstract:   a.p.Abstract,
		Authors:    a.p.Authors,
		Categories: a.p.Categories,
		PDFURL:     a.p.PDFURL,
	}
}

func (a paperIndexable) markIndexed(ctx context.Context, x *Indexer, chunkCount int) error {
	return x.papers.MarkPaperIndexed(ctx, a.p.ID, chunkCount)
}

type filingIndexable struct {
	d domain.FinancialDocument
}

func (f filingIndexable) id() uuid.UUID    { return f.d.ID }
func (f filingIndexable) fullText() string { return f.d.FullText }

func (f filingIndexable) baseChunkDocument() domain.ChunkDocument {
	return domain.ChunkDocument{
		DocumentID:      f.d.ID.String(),
		Ticker:          f.d.Ticker,
		CompanyName:     f.d.CompanyName,
		CIK:             f.d.CIK,
		DocumentType:    f.d.DocumentType,
		FiscalYear:      f.d.FiscalYear,
		FiscalPeriod:    f.d.FiscalPeriod,
		FilingDate:      f.d.FilingDate,
		AccessionNumber: f.d.AccessionNumber,
	}
}

func (f filingIndexable) markIndexed(ctx context.Context, x *Indexer, chunkCount int) error {
	return x.filings.MarkFinancialIndexed(ctx, f.d.ID, chunkCount)
}
