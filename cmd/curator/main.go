package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/config"
	dbRedis "github.com/curator-labs/curator/internal/db/redis"
	"github.com/curator-labs/curator/internal/domain"
	logpkg "github.com/curator-labs/curator/internal/logger"
	"github.com/curator-labs/curator/internal/metrics"
	"github.com/curator-labs/curator/internal/repository/catalog"
	"github.com/curator-labs/curator/internal/repository/embcache"
	"github.com/curator-labs/curator/internal/repository/index"
	chiTransport "github.com/curator-labs/curator/internal/transport/chi"
	"github.com/curator-labs/curator/internal/transport/llm"
	openaiEmb "github.com/curator-labs/curator/internal/transport/openai"
	askuc "github.com/curator-labs/curator/internal/usecase/ask"
	healthuc "github.com/curator-labs/curator/internal/usecase/health"
	searchuc "github.com/curator-labs/curator/internal/usecase/search"
	"github.com/curator-labs/curator/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting curator API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
	)

	ctx := context.Background()

	// Postgres catalog
	store, err := catalog.New(ctx, catalog.Config{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Failed to connect to catalog database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	logger.Info("Connected to catalog database")

	// OpenSearch index
	indexRepo, err := index.New(index.Config{
		Addrs:          cfg.Search.Addrs,
		Username:       cfg.Search.Username,
		Password:       cfg.Search.Password,
		PapersIndex:    cfg.Search.PapersIndex,
		FinancialIndex: cfg.Search.FinancialIndex,
		Pipeline:       cfg.Search.Pipeline,
		Dimension:      cfg.Embedding.Dimensions,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("Failed to create search index client", zap.Error(err))
	}

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	queryEmbedder, embedderChecker := buildQueryEmbedder(ctx, cfg, logger)

	// Answer generator
	generator, err := llm.New(ctx, llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to create answer generator", zap.Error(err))
	}
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	// Create use case services
	searchSvc := searchuc.New(indexRepo, queryEmbedder, logger)
	askSvc := askuc.New(searchSvc, generator, logger)
	healthSvc := healthuc.New(store, indexRepo, embedderChecker, generator)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, askSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached.
// The cache layer is skipped entirely when no Redis address is configured.
// The health checker is always the base provider; the cache decorator must
// not mask a dead embedding API.
func buildQueryEmbedder(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.QueryEmbedder, healthuc.ProviderChecker) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if len(cfg.Cache.Addrs) == 0 {
		return base, base
	}

	cache, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Warn("Embedding cache unavailable, continuing without it", zap.Error(err))
		return base, base
	}
	if err := cache.WaitForReady(ctx, 10*time.Second); err != nil {
		logger.Warn("Embedding cache not ready, continuing without it", zap.Error(err))
		cache.Close()
		return base, base
	}
	logger.Info("Embedding cache connected", zap.Strings("addrs", cfg.Cache.Addrs))

	cached := embcache.New(base, cache, cfg.Cache.KeyPrefix, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
	return cached, base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ToContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
