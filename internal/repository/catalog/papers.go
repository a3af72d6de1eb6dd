package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/curator-labs/curator/internal/domain"
)

// UpsertPaper inserts a paper or refreshes its metadata and full text when the
// arXiv id already exists. Returns the stored paper with its catalog id and
// whether a new row was created.
func (s *Store) UpsertPaper(ctx context.Context, p domain.Paper) (domain.Paper, bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var (
		id      uuid.UUID
		created bool
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO papers (id, arxiv_id, title, authors, abstract, categories, published, pdf_url, full_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (arxiv_id) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			abstract = EXCLUDED.abstract,
			categories = EXCLUDED.categories,
			published = EXCLUDED.published,
			pdf_url = EXCLUDED.pdf_url,
			full_text = CASE WHEN EXCLUDED.full_text <> '' THEN EXCLUDED.full_text ELSE papers.full_text END,
			updated_at = now()
		RETURNING id, (xmax = 0)`,
		p.ID, p.ArxivID, p.Title, pq.Array(p.Authors), p.Abstract,
		pq.Array(p.Categories), nullTime(p.Published), p.PDFURL, p.FullText,
	).Scan(&id, &created)
	if err != nil {
		return domain.Paper{}, false, fmt.Errorf("upsert paper %s: %w", p.ArxivID, err)
	}

	p.ID = id
	return p, created, nil
}

// GetPaperByArxivID returns a paper by its arXiv identifier.
func (s *Store) GetPaperByArxivID(ctx context.Context, arxivID string) (domain.Paper, error) {
	row := s.db.QueryRowContext(ctx, paperSelect+` WHERE arxiv_id = $1`, arxivID)
	p, err := scanPaper(row)
	if err != nil {
		return domain.Paper{}, mapRowError(err, "get paper "+arxivID)
	}
	return p, nil
}

// ListUnindexedPapers returns papers with full text that are not yet in the
// search index, oldest first.
func (s *Store) ListUnindexedPapers(ctx context.Context, limit int) ([]domain.Paper, error) {
	rows, err := s.db.QueryContext(ctx, paperSelect+`
		WHERE NOT indexed_in_search AND full_text <> ''
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unindexed papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unindexed papers: %w", err)
	}
	return papers, nil
}

// MarkPaperIndexed records a successful indexing run for the paper.
func (s *Store) MarkPaperIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE papers
		SET indexed_in_search = TRUE, indexing_date = now(), chunk_count = $2, updated_at = now()
		WHERE id = $1`, id, chunkCount)
	if err != nil {
		return fmt.Errorf("mark paper indexed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const paperSelect = `
	SELECT id, arxiv_id, title, authors, abstract, categories, published, pdf_url, full_text,
		indexed_in_search, indexing_date, chunk_count, created_at, updated_at
	FROM papers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (domain.Paper, error) {
	var (
		p                       domain.Paper
		published, indexingDate sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.ArxivID, &p.Title, pq.Array(&p.Authors), &p.Abstract,
		pq.Array(&p.Categories), &published, &p.PDFURL, &p.FullText,
		&p.IndexedInSearch, &indexingDate, &p.ChunkCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Paper{}, err
	}
	p.Published = published.Time
	p.IndexingDate = indexingDate.Time
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
