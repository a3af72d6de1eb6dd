// Package chi exposes the HTTP API: chunk search, RAG ask, health, metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/domain"
	askuc "github.com/curator-labs/curator/internal/usecase/ask"
	healthuc "github.com/curator-labs/curator/internal/usecase/health"
	searchuc "github.com/curator-labs/curator/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the HTTP API routes.
type Server struct {
	search        *searchuc.Service
	ask           *askuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, ask *askuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		ask:    ask,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrCompanyNotFound, http.StatusNotFound, "company_not_found"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, "generation_provider_error"),
		sentinelHandler(domain.ErrSearchBackendError, http.StatusBadGateway, "search_backend_error"),
	}
	return s
}

// Routes mounts the API on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/hybrid-search/", s.handleHybridSearch)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

// handleHybridSearch handles POST /hybrid-search/ over the papers corpus.
func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req hybridSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	result, err := s.search.Search(r.Context(), searchuc.Request{
		Corpus:    domain.CorpusArxiv,
		Query:     req.Query,
		Size:      req.Size,
		UseHybrid: req.UseHybrid,
		Filters:   domain.SearchFilters{Categories: req.Categories},
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hybridSearchResponse{
		Hits:       hitsToJSON(result.Hits),
		Total:      result.Total,
		SearchMode: result.SearchMode,
	})
}

// handleAsk handles POST /ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	corpus, err := corpusFromDocumentType(req.DocumentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := s.ask.Ask(r.Context(), askuc.Request{
		Corpus:    corpus,
		Query:     req.Query,
		TopK:      req.TopK,
		UseHybrid: req.UseHybrid,
		Filters: domain.SearchFilters{
			Ticker:      req.Ticker,
			FilingTypes: req.FilingTypes,
			Categories:  req.Categories,
		},
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askJSONResponse{
		Answer:        resp.Answer,
		Sources:       resp.Sources,
		Citations:     resp.Citations,
		ContextChunks: hitsToJSON(resp.ContextChunks),
		SearchMode:    resp.SearchMode,
		TokensUsed:    resp.TokensUsed,
		ModelUsed:     resp.ModelUsed,
	})
}

// handleHealth handles GET /health. Any failing check degrades the status to
// 503 with the per-component map in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func corpusFromDocumentType(documentType string) (domain.Corpus, error) {
	switch documentType {
	case "", string(domain.CorpusArxiv):
		return domain.CorpusArxiv, nil
	case string(domain.CorpusFinancial), "10-K", "10-Q":
		return domain.CorpusFinancial, nil
	default:
		return "", errors.New("document_type must be arxiv or financial")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrCompanyNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrSearchBackendError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
