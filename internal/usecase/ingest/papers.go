// Package ingest pulls documents from external sources into the catalog and
// pushes chunked, embedded text into the search index.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/metrics"
	"github.com/curator-labs/curator/internal/transport/arxiv"
)

// PaperStats summarizes one paper ingestion run.
type PaperStats struct {
	Fetched int
	Created int
	Updated int
	Failed  int
}

// PaperService ingests arXiv paper metadata into the catalog.
type PaperService struct {
	arxiv   PaperLister
	catalog PaperCatalog
	logger  *zap.Logger
}

// NewPaperService creates a paper ingestion service.
func NewPaperService(lister PaperLister, catalog PaperCatalog, logger *zap.Logger) *PaperService {
	return &PaperService{arxiv: lister, catalog: catalog, logger: logger}
}

// Ingest fetches a paper listing, acquires each paper's full text and
// upserts every paper. A failed upsert is counted and skipped; one bad row
// must not abort the run.
func (s *PaperService) Ingest(ctx context.Context, q arxiv.Query) (PaperStats, error) {
	papers, err := s.arxiv.FetchPapers(ctx, q)
	if err != nil {
		return PaperStats{}, fmt.Errorf("fetch papers: %w", err)
	}

	stats := PaperStats{Fetched: len(papers)}
	for _, p := range papers {
		p.FullText = s.acquireFullText(ctx, p)
		_, created, err := s.catalog.UpsertPaper(ctx, p)
		if err != nil {
			stats.Failed++
			metrics.IngestDocumentsTotal.WithLabelValues(string(domain.CorpusArxiv), "failed").Inc()
			s.logger.Warn("Failed to store paper",
				zap.String("arxiv_id", p.ArxivID), zap.Error(err))
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
		metrics.IngestDocumentsTotal.WithLabelValues(string(domain.CorpusArxiv), "processed").Inc()
	}

	s.logger.Info("Paper ingestion finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// acquireFullText downloads the paper's HTML full text. Papers without an
// HTML rendering fall back to the abstract so they still clear the
// non-empty full_text gate for indexing.
func (s *PaperService) acquireFullText(ctx context.Context, p domain.Paper) string {
	text, err := s.arxiv.DownloadFullText(ctx, p)
	if err != nil {
		s.logger.Warn("Full text unavailable, falling back to abstract",
			zap.String("arxiv_id", p.ArxivID), zap.Error(err))
		return p.Abstract
	}
	if strings.TrimSpace(text) == "" {
		return p.Abstract
	}
	return text
}
