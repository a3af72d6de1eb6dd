// Package main provides the ragingest CLI: corpus ingestion and indexing
// for the curator retrieval service.
//
// Basic usage:
//
//	ragingest setup                      # create catalog tables and search indexes
//	ragingest papers --categories cs.AI  # pull arXiv metadata into the catalog
//	ragingest filings --ticker AAPL      # pull SEC filings into the catalog
//	ragingest index --corpus all         # chunk, embed and index pending documents
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/config"
	logpkg "github.com/curator-labs/curator/internal/logger"
	"github.com/curator-labs/curator/internal/metrics"
	"github.com/curator-labs/curator/internal/repository/catalog"
	"github.com/curator-labs/curator/internal/repository/index"
	"github.com/curator-labs/curator/internal/version"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ragingest",
		Short:         "Ingest and index documents for the curator retrieval service",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		buildSetupCmd(),
		buildPapersCmd(),
		buildFilingsCmd(),
		buildIndexCmd(),
		buildStatusCmd(),
	)
	return cmd
}

// app bundles the pieces every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newApp() (*app, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	metrics.RegisterPipelineMetrics()
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	store, err := catalog.New(cmd.Context(), catalog.Config{
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to catalog: %w", err)
	}
	return store, nil
}

func (a *app) openIndex() (*index.Repo, error) {
	repo, err := index.New(index.Config{
		Addrs:          a.cfg.Search.Addrs,
		Username:       a.cfg.Search.Username,
		Password:       a.cfg.Search.Password,
		PapersIndex:    a.cfg.Search.PapersIndex,
		FinancialIndex: a.cfg.Search.FinancialIndex,
		Pipeline:       a.cfg.Search.Pipeline,
		Dimension:      a.cfg.Embedding.Dimensions,
		Logger:         a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to search index: %w", err)
	}
	return repo, nil
}
