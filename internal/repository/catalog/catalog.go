// Package catalog stores document metadata and full text in Postgres.
// It is the system of record; the search index is derived from it.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

// Store provides catalog access over Postgres.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds catalog connection settings.
type Config struct {
	DSN          string
	MaxOpenConns int
	Logger       *zap.Logger
}

// New opens a Postgres connection pool and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: cfg.Logger}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrate creates the catalog tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		id UUID PRIMARY KEY,
		arxiv_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		authors TEXT[] NOT NULL DEFAULT '{}',
		abstract TEXT NOT NULL DEFAULT '',
		categories TEXT[] NOT NULL DEFAULT '{}',
		published TIMESTAMPTZ,
		pdf_url TEXT NOT NULL DEFAULT '',
		full_text TEXT NOT NULL DEFAULT '',
		indexed_in_search BOOLEAN NOT NULL DEFAULT FALSE,
		indexing_date TIMESTAMPTZ,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS papers_unindexed_idx
		ON papers (created_at) WHERE NOT indexed_in_search`,
	`CREATE TABLE IF NOT EXISTS financial_documents (
		id UUID PRIMARY KEY,
		cik TEXT NOT NULL,
		ticker TEXT NOT NULL,
		company_name TEXT NOT NULL DEFAULT '',
		document_type TEXT NOT NULL,
		fiscal_year TEXT NOT NULL DEFAULT '',
		fiscal_period TEXT NOT NULL DEFAULT '',
		filing_date TIMESTAMPTZ,
		accession_number TEXT NOT NULL UNIQUE,
		full_text TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		content_parsed BOOLEAN NOT NULL DEFAULT FALSE,
		parsing_date TIMESTAMPTZ,
		indexed_in_search BOOLEAN NOT NULL DEFAULT FALSE,
		indexing_date TIMESTAMPTZ,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS financial_documents_ticker_idx
		ON financial_documents (ticker, document_type)`,
	`CREATE INDEX IF NOT EXISTS financial_documents_unindexed_idx
		ON financial_documents (created_at) WHERE NOT indexed_in_search`,
}

// Stats summarizes catalog contents for the health and CLI status views.
type Stats struct {
	Papers             int
	PapersIndexed      int
	FinancialDocs      int
	FinancialIndexed   int
	DistinctCompanies  int
	DistinctCategories int
}

// Stats returns document counts per corpus.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM papers),
			(SELECT count(*) FROM papers WHERE indexed_in_search),
			(SELECT count(*) FROM financial_documents),
			(SELECT count(*) FROM financial_documents WHERE indexed_in_search),
			(SELECT count(DISTINCT ticker) FROM financial_documents),
			(SELECT count(DISTINCT cat) FROM papers, unnest(categories) AS cat)`)
	if err := row.Scan(
		&st.Papers, &st.PapersIndexed,
		&st.FinancialDocs, &st.FinancialIndexed,
		&st.DistinctCompanies, &st.DistinctCategories,
	); err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func mapRowError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
