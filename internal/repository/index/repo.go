// Package index implements the OpenSearch chunk index: mapping management,
// bulk indexing, and hybrid (BM25 + kNN with RRF) retrieval.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
)

// Repo provides chunk index access over OpenSearch.
type Repo struct {
	client         *opensearch.Client
	papersIndex    string
	financialIndex string
	pipeline       string
	dimension      int
	logger         *zap.Logger
}

// Config holds OpenSearch connection and index settings.
type Config struct {
	Addrs          []string
	Username       string
	Password       string
	PapersIndex    string
	FinancialIndex string
	Pipeline       string
	Dimension      int
	Logger         *zap.Logger
}

// New creates an OpenSearch-backed chunk index repository.
func New(cfg Config) (*Repo, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	return &Repo{
		client:         client,
		papersIndex:    cfg.PapersIndex,
		financialIndex: cfg.FinancialIndex,
		pipeline:       cfg.Pipeline,
		dimension:      cfg.Dimension,
		logger:         cfg.Logger,
	}, nil
}

// indexFor maps a corpus to its index name.
func (r *Repo) indexFor(corpus domain.Corpus) string {
	if corpus == domain.CorpusFinancial {
		return r.financialIndex
	}
	return r.papersIndex
}

// Ping checks cluster health; green and yellow are considered healthy.
func (r *Repo) Ping(ctx context.Context) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := r.do(ctx, http.MethodGet, "/_cluster/health", nil, nil, &health); err != nil {
		return err
	}
	if health.Status != "green" && health.Status != "yellow" {
		return fmt.Errorf("cluster status %s: %w", health.Status, domain.ErrSearchBackendError)
	}
	return nil
}

// EnsureIndexes creates both chunk indices and the RRF search pipeline.
// With force=true, existing indices are dropped and recreated.
func (r *Repo) EnsureIndexes(ctx context.Context, force bool) error {
	for _, name := range []string{r.papersIndex, r.financialIndex} {
		if err := r.ensureIndex(ctx, name, force); err != nil {
			return err
		}
	}
	return r.ensurePipeline(ctx)
}

func (r *Repo) ensureIndex(ctx context.Context, name string, force bool) error {
	exists, err := r.indexExists(ctx, name)
	if err != nil {
		return err
	}

	if exists && force {
		if err := r.do(ctx, http.MethodDelete, "/"+name, nil, nil, nil); err != nil {
			return fmt.Errorf("delete index %s: %w", name, err)
		}
		exists = false
		r.logger.Info("Deleted existing index", zap.String("index", name))
	}

	if exists {
		return nil
	}

	if err := r.do(ctx, http.MethodPut, "/"+name, nil, chunkIndexBody(r.dimension), nil); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	r.logger.Info("Created index", zap.String("index", name))
	return nil
}

func (r *Repo) indexExists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "/"+name, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Perform(req)
	if err != nil {
		return false, fmt.Errorf("head index %s: %w", name, domain.ErrSearchBackendError)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("head index %s: status %d: %w", name, resp.StatusCode, domain.ErrSearchBackendError)
	}
}

// ensurePipeline installs the shared RRF search pipeline. The PUT is
// idempotent, so no existence check is needed.
func (r *Repo) ensurePipeline(ctx context.Context) error {
	if err := r.do(ctx, http.MethodPut, "/_search/pipeline/"+r.pipeline, nil, rrfPipelineBody(), nil); err != nil {
		return fmt.Errorf("create search pipeline %s: %w", r.pipeline, err)
	}
	return nil
}

// BulkIndexChunks indexes chunk documents via the bulk API and returns the
// number successfully indexed.
func (r *Repo) BulkIndexChunks(ctx context.Context, corpus domain.Corpus, docs []domain.ChunkDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	indexName := r.indexFor(corpus)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": indexName, "_id": doc.ChunkID}}
		if err := enc.Encode(action); err != nil {
			return 0, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(toSource(doc)); err != nil {
			return 0, fmt.Errorf("encode bulk source: %w", err)
		}
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	query := url.Values{"refresh": []string{"true"}}
	if err := r.doNDJSON(ctx, "/_bulk", query, buf.Bytes(), &result); err != nil {
		return 0, err
	}

	if !result.Errors {
		return len(docs), nil
	}

	indexed := 0
	for _, item := range result.Items {
		for op, st := range item {
			if st.Status >= 200 && st.Status < 300 {
				indexed++
			} else if st.Error != nil {
				r.logger.Warn("Bulk item failed",
					zap.String("op", op),
					zap.Int("status", st.Status),
					zap.String("type", st.Error.Type),
					zap.String("reason", st.Error.Reason))
			}
		}
	}
	return indexed, nil
}

// DeleteDocumentChunks removes all chunks belonging to a catalog document.
// Used before re-indexing so stale chunks never linger.
func (r *Repo) DeleteDocumentChunks(ctx context.Context, corpus domain.Corpus, documentID string) (int, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"document_id": documentID},
		},
	}

	var result struct {
		Deleted int `json:"deleted"`
	}
	path := "/" + r.indexFor(corpus) + "/_delete_by_query"
	query := url.Values{"refresh": []string{"true"}}
	if err := r.do(ctx, http.MethodPost, path, query, body, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// do executes a JSON request against the cluster and decodes the response
// into out when non-nil. Non-2xx responses map to ErrSearchBackendError.
func (r *Repo) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	return r.perform(req, out)
}

// doNDJSON executes a bulk request with a newline-delimited JSON payload.
func (r *Repo) doNDJSON(ctx context.Context, path string, query url.Values, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	return r.perform(req, out)
}

func (r *Repo) perform(req *http.Request, out any) error {
	resp, err := r.client.Perform(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", req.Method, req.URL.Path, err, domain.ErrSearchBackendError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s: status %d: %s: %w",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)), domain.ErrSearchBackendError)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
