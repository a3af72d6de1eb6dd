package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/metrics"
	"github.com/curator-labs/curator/internal/transport/sec"
)

// minFilingChars guards against filing pages that render to almost nothing;
// such content would only pollute the index.
const minFilingChars = 100

// FilingStats summarizes one filing ingestion run.
type FilingStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// FilingService ingests SEC filings into the catalog.
type FilingService struct {
	edgar   FilingFetcher
	catalog FilingCatalog
	logger  *zap.Logger
}

// NewFilingService creates a filing ingestion service.
func NewFilingService(edgar FilingFetcher, catalog FilingCatalog, logger *zap.Logger) *FilingService {
	return &FilingService{edgar: edgar, catalog: catalog, logger: logger}
}

// Ingest fetches recent filings of the given types for a ticker, downloads
// their content, and stores them. Already-cataloged accession numbers are
// skipped without a content download.
func (s *FilingService) Ingest(ctx context.Context, ticker string, filingTypes []string, count int) (FilingStats, error) {
	var stats FilingStats

	for _, filingType := range filingTypes {
		filings, err := s.fetchList(ctx, ticker, filingType, count)
		if err != nil {
			return stats, err
		}

		for _, filing := range filings {
			switch s.ingestOne(ctx, filing) {
			case outcomeProcessed:
				stats.Processed++
			case outcomeSkipped:
				stats.Skipped++
			case outcomeFailed:
				stats.Failed++
			}
		}
	}

	s.logger.Info("Filing ingestion finished",
		zap.String("ticker", ticker),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *FilingService) fetchList(ctx context.Context, ticker, filingType string, count int) ([]sec.Filing, error) {
	switch filingType {
	case "10-K":
		filings, err := s.edgar.Fetch10K(ctx, ticker, count)
		if err != nil {
			return nil, fmt.Errorf("fetch 10-K list: %w", err)
		}
		return filings, nil
	case "10-Q":
		filings, err := s.edgar.Fetch10Q(ctx, ticker, count)
		if err != nil {
			return nil, fmt.Errorf("fetch 10-Q list: %w", err)
		}
		return filings, nil
	default:
		return nil, fmt.Errorf("filing type %q: %w", filingType, domain.ErrInvalidRequest)
	}
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *FilingService) ingestOne(ctx context.Context, filing sec.Filing) outcome {
	corpus := string(domain.CorpusFinancial)

	// Check the accession number first so known filings cost no download.
	if _, err := s.catalog.GetFinancialByAccession(ctx, filing.AccessionNumber); err == nil {
		metrics.IngestDocumentsTotal.WithLabelValues(corpus, "skipped").Inc()
		s.logger.Debug("Filing already cataloged",
			zap.String("accession", filing.AccessionNumber))
		return outcomeSkipped
	} else if !errors.Is(err, domain.ErrNotFound) {
		metrics.IngestDocumentsTotal.WithLabelValues(corpus, "failed").Inc()
		s.logger.Warn("Failed to check filing",
			zap.String("accession", filing.AccessionNumber), zap.Error(err))
		return outcomeFailed
	}

	content, err := s.edgar.DownloadFilingContent(ctx, filing.SourceURL)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues(corpus, "failed").Inc()
		s.logger.Warn("Failed to download filing",
			zap.String("accession", filing.AccessionNumber), zap.Error(err))
		return outcomeFailed
	}
	if len(content) < minFilingChars {
		metrics.IngestDocumentsTotal.WithLabelValues(corpus, "failed").Inc()
		s.logger.Warn("Filing content too short",
			zap.String("accession", filing.AccessionNumber),
			zap.Int("chars", len(content)),
			zap.Error(domain.ErrContentTooShort))
		return outcomeFailed
	}

	doc := domain.FinancialDocument{
		CIK:             filing.CIK,
		Ticker:          filing.Ticker,
		CompanyName:     filing.CompanyName,
		DocumentType:    filing.DocumentType,
		FiscalYear:      filing.FiscalYear,
		FiscalPeriod:    fiscalPeriod(filing),
		FilingDate:      filing.FilingDate,
		AccessionNumber: filing.AccessionNumber,
		FullText:        content,
		SourceURL:       filing.SourceURL,
		ContentParsed:   true,
		ParsingDate:     time.Now().UTC(),
	}

	if _, err := s.catalog.CreateFinancial(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			metrics.IngestDocumentsTotal.WithLabelValues(corpus, "skipped").Inc()
			s.logger.Debug("Filing already cataloged",
				zap.String("accession", filing.AccessionNumber))
			return outcomeSkipped
		}
		metrics.IngestDocumentsTotal.WithLabelValues(corpus, "failed").Inc()
		s.logger.Warn("Failed to store filing",
			zap.String("accession", filing.AccessionNumber), zap.Error(err))
		return outcomeFailed
	}

	metrics.IngestDocumentsTotal.WithLabelValues(corpus, "processed").Inc()
	return outcomeProcessed
}

// fiscalPeriod derives FY for annual reports and the calendar quarter of the
// filing date for quarterly ones.
func fiscalPeriod(filing sec.Filing) string {
	if filing.DocumentType == "10-K" {
		return "FY"
	}
	if filing.FilingDate.IsZero() {
		return ""
	}
	return fmt.Sprintf("Q%d", (int(filing.FilingDate.Month())-1)/3+1)
}
