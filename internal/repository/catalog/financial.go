package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/curator-labs/curator/internal/domain"
)

// CreateFinancial inserts a filing. Returns domain.ErrAlreadyExists when the
// accession number is already cataloged, so ingestion can skip re-downloads.
func (s *Store) CreateFinancial(ctx context.Context, d domain.FinancialDocument) (domain.FinancialDocument, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_documents (
			id, cik, ticker, company_name, document_type, fiscal_year, fiscal_period,
			filing_date, accession_number, full_text, source_url, content_parsed, parsing_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.CIK, d.Ticker, d.CompanyName, d.DocumentType, d.FiscalYear, d.FiscalPeriod,
		nullTime(d.FilingDate), d.AccessionNumber, d.FullText, d.SourceURL,
		d.ContentParsed, nullTime(d.ParsingDate))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.FinancialDocument{}, domain.ErrAlreadyExists
		}
		return domain.FinancialDocument{}, fmt.Errorf("create filing %s: %w", d.AccessionNumber, err)
	}
	return d, nil
}

// GetFinancialByAccession returns a filing by its accession number.
func (s *Store) GetFinancialByAccession(ctx context.Context, accession string) (domain.FinancialDocument, error) {
	row := s.db.QueryRowContext(ctx, financialSelect+` WHERE accession_number = $1`, accession)
	d, err := scanFinancial(row)
	if err != nil {
		return domain.FinancialDocument{}, mapRowError(err, "get filing "+accession)
	}
	return d, nil
}

// ListUnindexedFinancial returns parsed filings not yet in the search index,
// oldest first.
func (s *Store) ListUnindexedFinancial(ctx context.Context, limit int) ([]domain.FinancialDocument, error) {
	rows, err := s.db.QueryContext(ctx, financialSelect+`
		WHERE NOT indexed_in_search AND content_parsed AND full_text <> ''
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unindexed filings: %w", err)
	}
	defer rows.Close()

	var docs []domain.FinancialDocument
	for rows.Next() {
		d, err := scanFinancial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan filing: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unindexed filings: %w", err)
	}
	return docs, nil
}

// MarkFinancialIndexed records a successful indexing run for the filing.
func (s *Store) MarkFinancialIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE financial_documents
		SET indexed_in_search = TRUE, indexing_date = now(), chunk_count = $2, updated_at = now()
		WHERE id = $1`, id, chunkCount)
	if err != nil {
		return fmt.Errorf("mark filing indexed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const financialSelect = `
	SELECT id, cik, ticker, company_name, document_type, fiscal_year, fiscal_period,
		filing_date, accession_number, full_text, source_url, content_parsed, parsing_date,
		indexed_in_search, indexing_date, chunk_count, created_at, updated_at
	FROM financial_documents`

func scanFinancial(row rowScanner) (domain.FinancialDocument, error) {
	var (
		d                                    domain.FinancialDocument
		filingDate, parsingDate, indexingDate sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.CIK, &d.Ticker, &d.CompanyName, &d.DocumentType, &d.FiscalYear, &d.FiscalPeriod,
		&filingDate, &d.AccessionNumber, &d.FullText, &d.SourceURL, &d.ContentParsed, &parsingDate,
		&d.IndexedInSearch, &indexingDate, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.FinancialDocument{}, err
	}
	d.FilingDate = filingDate.Time
	d.ParsingDate = parsingDate.Time
	d.IndexingDate = indexingDate.Time
	return d, nil
}
