package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/chunker"
	"github.com/curator-labs/curator/internal/domain"
	"github.com/curator-labs/curator/internal/repository/catalog"
	"github.com/curator-labs/curator/internal/transport/arxiv"
	openaiEmb "github.com/curator-labs/curator/internal/transport/openai"
	"github.com/curator-labs/curator/internal/transport/sec"
	"github.com/curator-labs/curator/internal/usecase/ingest"
)

// buildSetupCmd creates the "setup" command: catalog schema plus search
// indexes and the hybrid ranking pipeline.
func buildSetupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create catalog tables, search indexes and the hybrid search pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate catalog: %w", err)
			}
			a.logger.Info("Catalog schema up to date")

			repo, err := a.openIndex()
			if err != nil {
				return err
			}
			if err := repo.EnsureIndexes(cmd.Context(), force); err != nil {
				return fmt.Errorf("ensure search indexes: %w", err)
			}
			a.logger.Info("Search indexes ready", zap.Bool("force", force))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"Drop and recreate the search indexes (destroys indexed chunks)")
	return cmd
}

// buildPapersCmd creates the "papers" command: arXiv metadata ingestion.
func buildPapersCmd() *cobra.Command {
	var (
		categories []string
		maxResults int
		from, to   string
	)

	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Fetch arXiv paper metadata into the catalog",
		Example: `  ragingest papers --categories cs.AI,cs.CL --max-results 100
  ragingest papers --from 20240101 --to 20240201`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(categories) == 0 {
				categories = a.cfg.Arxiv.Categories
			}
			if maxResults <= 0 {
				maxResults = a.cfg.Arxiv.MaxResults
			}

			client := arxiv.NewClient(arxiv.Config{
				BaseURL: a.cfg.Arxiv.BaseURL,
				Logger:  a.logger,
			})
			svc := ingest.NewPaperService(client, store, a.logger)

			stats, err := svc.Ingest(cmd.Context(), arxiv.Query{
				Categories: categories,
				From:       from,
				To:         to,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Fetched %d papers: %d created, %d updated, %d failed\n",
				stats.Fetched, stats.Created, stats.Updated, stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "categories", nil,
		"arXiv categories to fetch (default from config)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0,
		"Maximum papers to fetch (default from config)")
	cmd.Flags().StringVar(&from, "from", "", "Submitted-date range start (YYYYMMDD)")
	cmd.Flags().StringVar(&to, "to", "", "Submitted-date range end (YYYYMMDD)")
	return cmd
}

// buildFilingsCmd creates the "filings" command: SEC EDGAR filing ingestion.
func buildFilingsCmd() *cobra.Command {
	var (
		ticker      string
		filingTypes []string
		count       int
	)

	cmd := &cobra.Command{
		Use:   "filings",
		Short: "Fetch SEC filings for a company into the catalog",
		Example: `  ragingest filings --ticker AAPL
  ragingest filings --ticker MSFT --types 10-K --count 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client := sec.NewClient(sec.Config{
				BaseURL:            a.cfg.SEC.BaseURL,
				UserAgent:          a.cfg.SEC.UserAgent,
				RateLimitPerSecond: a.cfg.SEC.RateLimitPerSecond,
				Logger:             a.logger,
			})
			svc := ingest.NewFilingService(client, store, a.logger)

			stats, err := svc.Ingest(cmd.Context(), ticker, filingTypes, count)
			if err != nil {
				return err
			}

			fmt.Printf("Filings for %s: %d processed, %d skipped, %d failed\n",
				ticker, stats.Processed, stats.Skipped, stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "Company ticker symbol (required)")
	cmd.Flags().StringSliceVar(&filingTypes, "types", []string{"10-K", "10-Q"},
		"Filing types to fetch")
	cmd.Flags().IntVar(&count, "count", 2, "Filings to fetch per type")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}

// buildStatusCmd creates the "status" command: catalog contents and indexing
// progress per corpus.
func buildStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents and indexing progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(formatStats(stats))
			return nil
		},
	}
}

// formatStats renders the status summary. Pending counts make a stalled
// pipeline visible at a glance.
func formatStats(st catalog.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Papers:  %d total, %d indexed, %d pending, %d distinct categories\n",
		st.Papers, st.PapersIndexed, st.Papers-st.PapersIndexed, st.DistinctCategories)
	fmt.Fprintf(&sb, "Filings: %d total, %d indexed, %d pending, %d companies\n",
		st.FinancialDocs, st.FinancialIndexed, st.FinancialDocs-st.FinancialIndexed, st.DistinctCompanies)
	return sb.String()
}

// buildIndexCmd creates the "index" command: chunk, embed and index pending
// catalog documents.
func buildIndexCmd() *cobra.Command {
	var (
		corpus string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk, embed and index unindexed catalog documents",
		Example: `  ragingest index --corpus arxiv
  ragingest index --corpus all --limit 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var corpora []domain.Corpus
			switch corpus {
			case "arxiv":
				corpora = []domain.Corpus{domain.CorpusArxiv}
			case "financial":
				corpora = []domain.Corpus{domain.CorpusFinancial}
			case "all":
				corpora = []domain.Corpus{domain.CorpusArxiv, domain.CorpusFinancial}
			default:
				return fmt.Errorf("unknown corpus %q: want arxiv, financial or all", corpus)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			repo, err := a.openIndex()
			if err != nil {
				return err
			}

			embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:     a.cfg.Embedding.APIKey,
				BaseURL:    a.cfg.Embedding.BaseURL,
				Model:      a.cfg.Embedding.Model,
				Dimensions: a.cfg.Embedding.Dimensions,
				Provider:   a.cfg.Embedding.Provider,
				Logger:     a.logger,
			})

			indexer := ingest.NewIndexer(ingest.IndexerConfig{
				Papers:         store,
				Filings:        store,
				Index:          repo,
				Embedder:       embedder,
				Chunker:        chunker.New(a.cfg.Chunking.ChunkWords, a.cfg.Chunking.OverlapWords),
				BatchSize:      a.cfg.Embedding.BatchSize,
				EmbeddingModel: a.cfg.Embedding.Model,
				Logger:         a.logger,
			})

			for _, c := range corpora {
				stats, err := indexer.IndexPending(cmd.Context(), c, limit)
				if err != nil {
					return fmt.Errorf("index %s: %w", c, err)
				}
				fmt.Printf("%s: %d documents, %d chunks indexed, %d tokens, %d failed\n",
					c, stats.Documents, stats.ChunksIndexed, stats.TokensUsed, stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corpus, "corpus", "all", "Corpus to index: arxiv, financial or all")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum documents to index per corpus")
	return cmd
}
