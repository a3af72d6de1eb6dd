package index

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) *Repo {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	repo, err := New(Config{
		Addrs:          []string{server.URL},
		PapersIndex:    "arxiv-papers-chunks",
		FinancialIndex: "financial-docs-chunks",
		Pipeline:       "hybrid-rrf-pipeline",
		Dimension:      4,
		Logger:         zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return repo
}

func searchFixture() string {
	return `{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{
					"_id": "c1",
					"_score": 0.9,
					"_source": {
						"chunk_text": "attention is all you need",
						"document_id": "doc-1",
						"arxiv_id": "1706.03762",
						"title": "Attention Is All You Need"
					},
					"highlight": {"chunk_text": ["<em>attention</em> is all"]}
				},
				{
					"_id": "c2",
					"_score": 0.5,
					"_source": {
						"chunk_text": "revenue grew 12%",
						"document_id": "doc-2",
						"ticker_symbol": "AAPL",
						"company_name": "Apple Inc.",
						"document_type": "10-K",
						"filing_date": "2024-11-01"
					}
				}
			]
		}
	}`
}

func TestSearchHybrid(t *testing.T) {
	var gotPath, gotPipeline string
	var gotBody map[string]any

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPipeline = r.URL.Query().Get("search_pipeline")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, searchFixture())
	})

	hits, total, err := repo.SearchHybrid(context.Background(), domain.CorpusArxiv,
		"transformers", []float32{0.1, 0.2, 0.3, 0.4}, 5, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("SearchHybrid failed: %v", err)
	}

	if gotPath != "/arxiv-papers-chunks/_search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPipeline != "hybrid-rrf-pipeline" {
		t.Errorf("search_pipeline = %q", gotPipeline)
	}

	hybrid, ok := gotBody["query"].(map[string]any)["hybrid"].(map[string]any)
	if !ok {
		t.Fatalf("expected hybrid query, got %v", gotBody["query"])
	}
	queries := hybrid["queries"].([]any)
	if len(queries) != 2 {
		t.Fatalf("expected 2 sub-queries, got %d", len(queries))
	}
	knn := queries[1].(map[string]any)["knn"].(map[string]any)["embedding"].(map[string]any)
	if k := knn["k"].(float64); k != 10 {
		t.Errorf("knn k = %v, expected size*2 = 10", k)
	}
	src := gotBody["_source"].(map[string]any)
	excludes := src["excludes"].([]any)
	if len(excludes) != 1 || excludes[0] != "embedding" {
		t.Errorf("_source.excludes = %v", excludes)
	}

	if total != 2 || len(hits) != 2 {
		t.Fatalf("total=%d hits=%d", total, len(hits))
	}
	if hits[0].ChunkID != "c1" || hits[0].Score != 0.9 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[0].SourceID() != "1706.03762" {
		t.Errorf("paper SourceID = %q, expected arxiv id", hits[0].SourceID())
	}
	if len(hits[0].Highlights) != 1 {
		t.Errorf("highlights = %v", hits[0].Highlights)
	}
	if hits[1].SourceID() != "doc-2" {
		t.Errorf("filing SourceID = %q, expected document id", hits[1].SourceID())
	}
	if hits[1].Ticker != "AAPL" || hits[1].FilingDate != "2024-11-01" {
		t.Errorf("second hit = %+v", hits[1])
	}
}

func TestSearchBM25_FinancialFilters(t *testing.T) {
	var gotBody map[string]any
	var gotPipeline string

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPipeline = r.URL.Query().Get("search_pipeline")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"hits":{"total":{"value":0},"hits":[]}}`)
	})

	_, _, err := repo.SearchBM25(context.Background(), domain.CorpusFinancial, "revenue", 10,
		domain.SearchFilters{Ticker: "aapl", FilingTypes: []string{"10-K"}})
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}

	if gotPipeline != "" {
		t.Errorf("BM25 search must not set search_pipeline, got %q", gotPipeline)
	}

	boolQuery := gotBody["query"].(map[string]any)["bool"].(map[string]any)
	filter := boolQuery["filter"].([]any)
	if len(filter) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(filter))
	}
	term := filter[0].(map[string]any)["term"].(map[string]any)
	if term["ticker_symbol"] != "AAPL" {
		t.Errorf("ticker filter = %v, expected uppercased AAPL", term)
	}
}

func TestBulkIndexChunks(t *testing.T) {
	var gotLines []string
	var gotRefresh string

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotRefresh = r.URL.Query().Get("refresh")
		data, _ := io.ReadAll(r.Body)
		gotLines = strings.Split(strings.TrimSpace(string(data)), "\n")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"errors":false,"items":[]}`)
	})

	docs := []domain.ChunkDocument{
		{ChunkID: "a_chunk_0", Text: "first"},
		{ChunkID: "a_chunk_1", Text: "second"},
	}
	n, err := repo.BulkIndexChunks(context.Background(), domain.CorpusArxiv, docs)
	if err != nil {
		t.Fatalf("BulkIndexChunks failed: %v", err)
	}
	if n != 2 {
		t.Errorf("indexed = %d, expected 2", n)
	}
	if gotRefresh != "true" {
		t.Errorf("refresh = %q", gotRefresh)
	}
	if len(gotLines) != 4 {
		t.Fatalf("expected 4 ndjson lines, got %d", len(gotLines))
	}

	var action map[string]map[string]any
	json.Unmarshal([]byte(gotLines[0]), &action)
	if action["index"]["_index"] != "arxiv-papers-chunks" || action["index"]["_id"] != "a_chunk_0" {
		t.Errorf("bulk action = %v", action)
	}
}

func TestBulkIndexChunks_PartialFailure(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"errors": true,
			"items": [
				{"index": {"status": 201}},
				{"index": {"status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad field"}}}
			]
		}`)
	})

	docs := []domain.ChunkDocument{{ChunkID: "c0"}, {ChunkID: "c1"}}
	n, err := repo.BulkIndexChunks(context.Background(), domain.CorpusFinancial, docs)
	if err != nil {
		t.Fatalf("BulkIndexChunks failed: %v", err)
	}
	if n != 1 {
		t.Errorf("indexed = %d, expected 1", n)
	}
}

func TestBulkIndexChunks_Empty(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty batch")
	})

	n, err := repo.BulkIndexChunks(context.Background(), domain.CorpusArxiv, nil)
	if err != nil || n != 0 {
		t.Errorf("expected 0, nil; got %d, %v", n, err)
	}
}

func TestDeleteDocumentChunks(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"deleted": 7}`)
	})

	deleted, err := repo.DeleteDocumentChunks(context.Background(), domain.CorpusFinancial, "doc-42")
	if err != nil {
		t.Fatalf("DeleteDocumentChunks failed: %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d", deleted)
	}
	if gotPath != "/financial-docs-chunks/_delete_by_query" {
		t.Errorf("path = %q", gotPath)
	}
	term := gotBody["query"].(map[string]any)["term"].(map[string]any)
	if term["document_id"] != "doc-42" {
		t.Errorf("term = %v", term)
	}
}

func TestEnsureIndexes_CreatesMissing(t *testing.T) {
	var puts []string

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			puts = append(puts, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"acknowledged": true}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	if err := repo.EnsureIndexes(context.Background(), false); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	want := []string{"/arxiv-papers-chunks", "/financial-docs-chunks", "/_search/pipeline/hybrid-rrf-pipeline"}
	if len(puts) != len(want) {
		t.Fatalf("puts = %v", puts)
	}
	for i, p := range want {
		if puts[i] != p {
			t.Errorf("put[%d] = %q, expected %q", i, puts[i], p)
		}
	}
}

func TestEnsureIndexes_ForceRecreates(t *testing.T) {
	var deletes, puts int

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			deletes++
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"acknowledged": true}`)
		case http.MethodPut:
			puts++
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"acknowledged": true}`)
		}
	})

	if err := repo.EnsureIndexes(context.Background(), true); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if deletes != 2 {
		t.Errorf("deletes = %d, expected 2", deletes)
	}
	if puts != 3 {
		t.Errorf("puts = %d, expected 2 indices + pipeline", puts)
	}
}

func TestPing_RedCluster(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status": "red"}`)
	})

	err := repo.Ping(context.Background())
	if !errors.Is(err, domain.ErrSearchBackendError) {
		t.Fatalf("expected ErrSearchBackendError for red cluster, got %v", err)
	}
}

func TestSearch_BackendError(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "boom"}`)
	})

	_, _, err := repo.SearchBM25(context.Background(), domain.CorpusArxiv, "q", 5, domain.SearchFilters{})
	if !errors.Is(err, domain.ErrSearchBackendError) {
		t.Fatalf("expected ErrSearchBackendError, got %v", err)
	}
}
