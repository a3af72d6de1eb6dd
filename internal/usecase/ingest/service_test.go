package ingest

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/chunker"
	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/metrics"
	"github.com/curator-labs/curator/internal/transport/arxiv"
	"github.com/curator-labs/curator/internal/transport/sec"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- mocks ---

type mockPaperCatalog struct {
	upsertCreated bool
	upsertErr     error
	upserted      []domain.Paper
	unindexed     []domain.Paper
	marked        map[uuid.UUID]int
}

func (m *mockPaperCatalog) UpsertPaper(_ context.Context, p domain.Paper) (domain.Paper, bool, error) {
	if m.upsertErr != nil {
		return domain.Paper{}, false, m.upsertErr
	}
	m.upserted = append(m.upserted, p)
	return p, m.upsertCreated, nil
}

func (m *mockPaperCatalog) ListUnindexedPapers(_ context.Context, _ int) ([]domain.Paper, error) {
	return m.unindexed, nil
}

func (m *mockPaperCatalog) MarkPaperIndexed(_ context.Context, id uuid.UUID, chunks int) error {
	if m.marked == nil {
		m.marked = map[uuid.UUID]int{}
	}
	m.marked[id] = chunks
	return nil
}

type mockFilingCatalog struct {
	existing  map[string]bool
	created   []domain.FinancialDocument
	unindexed []domain.FinancialDocument
	marked    map[uuid.UUID]int
}

func (m *mockFilingCatalog) CreateFinancial(_ context.Context, d domain.FinancialDocument) (domain.FinancialDocument, error) {
	if m.existing[d.AccessionNumber] {
		return domain.FinancialDocument{}, domain.ErrAlreadyExists
	}
	m.created = append(m.created, d)
	return d, nil
}

func (m *mockFilingCatalog) GetFinancialByAccession(_ context.Context, accession string) (domain.FinancialDocument, error) {
	if m.existing[accession] {
		return domain.FinancialDocument{AccessionNumber: accession}, nil
	}
	return domain.FinancialDocument{}, domain.ErrNotFound
}

func (m *mockFilingCatalog) ListUnindexedFinancial(_ context.Context, _ int) ([]domain.FinancialDocument, error) {
	return m.unindexed, nil
}

func (m *mockFilingCatalog) MarkFinancialIndexed(_ context.Context, id uuid.UUID, chunks int) error {
	if m.marked == nil {
		m.marked = map[uuid.UUID]int{}
	}
	m.marked[id] = chunks
	return nil
}

type mockIndex struct {
	indexed   []domain.ChunkDocument
	deleted   []string
	indexErr  error
	deleteErr error
}

func (m *mockIndex) BulkIndexChunks(_ context.Context, _ domain.Corpus, docs []domain.ChunkDocument) (int, error) {
	if m.indexErr != nil {
		return 0, m.indexErr
	}
	m.indexed = append(m.indexed, docs...)
	return len(docs), nil
}

func (m *mockIndex) DeleteDocumentChunks(_ context.Context, _ domain.Corpus, documentID string) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return 0, nil
}

type mockPassageEmbedder struct {
	err    error
	tokens int
	calls  int
}

func (m *mockPassageEmbedder) EmbedPassages(_ context.Context, texts []string, _ int) ([][]float32, int, error) {
	m.calls++
	if m.err != nil {
		return nil, 0, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, m.tokens, nil
}

type mockLister struct {
	papers      []domain.Paper
	err         error
	fullText    string
	fullTextErr error
}

func (m *mockLister) FetchPapers(_ context.Context, _ arxiv.Query) ([]domain.Paper, error) {
	return m.papers, m.err
}

func (m *mockLister) DownloadFullText(_ context.Context, _ domain.Paper) (string, error) {
	return m.fullText, m.fullTextErr
}

type mockEdgar struct {
	filings     []sec.Filing
	content     string
	downloadErr error
	downloads   int
}

func (m *mockEdgar) Fetch10K(_ context.Context, _ string, _ int) ([]sec.Filing, error) {
	return m.filings, nil
}

func (m *mockEdgar) Fetch10Q(_ context.Context, _ string, _ int) ([]sec.Filing, error) {
	return m.filings, nil
}

func (m *mockEdgar) DownloadFilingContent(_ context.Context, _ string) (string, error) {
	m.downloads++
	if m.downloadErr != nil {
		return "", m.downloadErr
	}
	return m.content, nil
}

// --- paper ingestion ---

func TestPaperIngest(t *testing.T) {
	lister := &mockLister{papers: []domain.Paper{
		{ArxivID: "2401.00001", Title: "One"},
		{ArxivID: "2401.00002", Title: "Two"},
	}}
	catalog := &mockPaperCatalog{upsertCreated: true}

	svc := NewPaperService(lister, catalog, zap.NewNop())
	stats, err := svc.Ingest(context.Background(), arxiv.Query{MaxResults: 2})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if stats.Fetched != 2 || stats.Created != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPaperIngest_StoreFailureContinues(t *testing.T) {
	lister := &mockLister{papers: []domain.Paper{{ArxivID: "a"}, {ArxivID: "b"}}}
	catalog := &mockPaperCatalog{upsertErr: errors.New("db down")}

	svc := NewPaperService(lister, catalog, zap.NewNop())
	stats, err := svc.Ingest(context.Background(), arxiv.Query{})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if stats.Failed != 2 {
		t.Errorf("expected both papers counted failed, got %+v", stats)
	}
}

func TestPaperIngest_StoresDownloadedFullText(t *testing.T) {
	lister := &mockLister{
		papers:   []domain.Paper{{ArxivID: "2401.00001", Abstract: "short abstract"}},
		fullText: "full body of the paper",
	}
	catalog := &mockPaperCatalog{upsertCreated: true}

	svc := NewPaperService(lister, catalog, zap.NewNop())
	if _, err := svc.Ingest(context.Background(), arxiv.Query{}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(catalog.upserted) != 1 {
		t.Fatalf("upserted = %d papers", len(catalog.upserted))
	}
	if got := catalog.upserted[0].FullText; got != "full body of the paper" {
		t.Errorf("stored full text = %q", got)
	}
}

// A paper whose HTML rendering is unavailable must still be stored with a
// non-empty full text, or it would never be picked up for indexing.
func TestPaperIngest_FullTextFallsBackToAbstract(t *testing.T) {
	tests := []struct {
		name   string
		lister *mockLister
	}{
		{"download error", &mockLister{fullTextErr: errors.New("status 404")}},
		{"empty body", &mockLister{fullText: "  \n "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.lister.papers = []domain.Paper{{ArxivID: "2401.00001", Abstract: "the abstract"}}
			catalog := &mockPaperCatalog{upsertCreated: true}

			svc := NewPaperService(tt.lister, catalog, zap.NewNop())
			if _, err := svc.Ingest(context.Background(), arxiv.Query{}); err != nil {
				t.Fatalf("Ingest failed: %v", err)
			}

			if got := catalog.upserted[0].FullText; got != "the abstract" {
				t.Errorf("stored full text = %q, want abstract fallback", got)
			}
		})
	}
}

// --- filing ingestion ---

func TestFilingIngest_SkipsExistingWithoutDownload(t *testing.T) {
	edgar := &mockEdgar{
		filings: []sec.Filing{
			{AccessionNumber: "known", SourceURL: "http://x/1", DocumentType: "10-K"},
			{AccessionNumber: "new", SourceURL: "http://x/2", DocumentType: "10-K", FilingDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)},
		},
		content: strings.Repeat("net sales grew ", 20),
	}
	catalog := &mockFilingCatalog{existing: map[string]bool{"known": true}}

	svc := NewFilingService(edgar, catalog, zap.NewNop())
	stats, err := svc.Ingest(context.Background(), "AAPL", []string{"10-K"}, 2)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if stats.Processed != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if edgar.downloads != 1 {
		t.Errorf("downloads = %d, known filing must not be downloaded", edgar.downloads)
	}
	if len(catalog.created) != 1 || !catalog.created[0].ContentParsed {
		t.Errorf("created = %+v", catalog.created)
	}
	if catalog.created[0].FiscalPeriod != "FY" {
		t.Errorf("fiscal period = %q, expected FY for 10-K", catalog.created[0].FiscalPeriod)
	}
}

func TestFilingIngest_ShortContentFails(t *testing.T) {
	edgar := &mockEdgar{
		filings: []sec.Filing{{AccessionNumber: "a1", SourceURL: "http://x", DocumentType: "10-Q"}},
		content: "too short",
	}
	catalog := &mockFilingCatalog{}

	svc := NewFilingService(edgar, catalog, zap.NewNop())
	stats, err := svc.Ingest(context.Background(), "AAPL", []string{"10-Q"}, 1)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if stats.Failed != 1 || stats.Processed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(catalog.created) != 0 {
		t.Errorf("short filing must not be stored, got %+v", catalog.created)
	}
}

func TestFilingIngest_UnknownType(t *testing.T) {
	svc := NewFilingService(&mockEdgar{}, &mockFilingCatalog{}, zap.NewNop())
	_, err := svc.Ingest(context.Background(), "AAPL", []string{"8-K"}, 1)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

// --- indexer ---

func newTestIndexer(papers *mockPaperCatalog, filings *mockFilingCatalog, idx *mockIndex, emb *mockPassageEmbedder) *Indexer {
	return NewIndexer(IndexerConfig{
		Papers:         papers,
		Filings:        filings,
		Index:          idx,
		Embedder:       emb,
		Chunker:        chunker.New(10, 2),
		BatchSize:      50,
		EmbeddingModel: "test-model",
		Logger:         zap.NewNop(),
	})
}

func TestIndexPending_Papers(t *testing.T) {
	paperID := uuid.New()
	papers := &mockPaperCatalog{unindexed: []domain.Paper{{
		ID:       paperID,
		ArxivID:  "2401.00001",
		Title:    "Test Paper",
		FullText: strings.Repeat("word ", 25),
	}}}
	idx := &mockIndex{}
	emb := &mockPassageEmbedder{tokens: 42}

	x := newTestIndexer(papers, &mockFilingCatalog{}, idx, emb)
	stats, err := x.IndexPending(context.Background(), domain.CorpusArxiv, 10)
	if err != nil {
		t.Fatalf("IndexPending failed: %v", err)
	}

	if stats.Documents != 1 || stats.TokensUsed != 42 {
		t.Errorf("stats = %+v", stats)
	}
	// 25 words, window 10, step 8 -> chunks at 0, 8, 16, 24.
	if stats.ChunksIndexed != 4 {
		t.Errorf("chunks = %d, expected 4", stats.ChunksIndexed)
	}
	if papers.marked[paperID] != 4 {
		t.Errorf("marked chunk count = %d", papers.marked[paperID])
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != paperID.String() {
		t.Errorf("stale chunk delete = %v", idx.deleted)
	}

	first := idx.indexed[0]
	if first.ChunkID != paperID.String()+"_chunk_0" {
		t.Errorf("chunk id = %q", first.ChunkID)
	}
	if first.ArxivID != "2401.00001" || first.EmbeddingModel != "test-model" {
		t.Errorf("chunk doc = %+v", first)
	}
	if len(first.Embedding) != 2 {
		t.Errorf("embedding missing: %+v", first.Embedding)
	}
}

func TestIndexPending_EmbedFailureSkipsDocument(t *testing.T) {
	papers := &mockPaperCatalog{unindexed: []domain.Paper{
		{ID: uuid.New(), FullText: "some text here"},
	}}
	idx := &mockIndex{}
	emb := &mockPassageEmbedder{err: errors.New("provider down")}

	x := newTestIndexer(papers, &mockFilingCatalog{}, idx, emb)
	stats, err := x.IndexPending(context.Background(), domain.CorpusArxiv, 10)
	if err != nil {
		t.Fatalf("IndexPending failed: %v", err)
	}
	if stats.Failed != 1 || stats.Documents != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(papers.marked) != 0 {
		t.Error("failed document must not be marked indexed")
	}
}

func TestIndexPending_Financial(t *testing.T) {
	docID := uuid.New()
	filings := &mockFilingCatalog{unindexed: []domain.FinancialDocument{{
		ID:              docID,
		Ticker:          "AAPL",
		CompanyName:     "Apple Inc.",
		DocumentType:    "10-K",
		AccessionNumber: "acc1",
		FullText:        strings.Repeat("revenue ", 12),
	}}}
	idx := &mockIndex{}
	emb := &mockPassageEmbedder{}

	x := newTestIndexer(&mockPaperCatalog{}, filings, idx, emb)
	stats, err := x.IndexPending(context.Background(), domain.CorpusFinancial, 10)
	if err != nil {
		t.Fatalf("IndexPending failed: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if filings.marked[docID] == 0 {
		t.Error("filing not marked indexed")
	}
	if idx.indexed[0].Ticker != "AAPL" || idx.indexed[0].DocumentType != "10-K" {
		t.Errorf("chunk doc = %+v", idx.indexed[0])
	}
}
