// Package main provides the ragbench CLI: end-to-end evaluation of the
// curator retrieval service.
//
// Basic usage:
//
//	ragbench dataset --num-pairs 25 --output dataset.json
//	ragbench run --dataset dataset.json --name baseline
//	ragbench compare benchmark_results/baseline.json benchmark_results/tuned.json
//	ragbench visualize --output report.html benchmark_results/*.json
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curator-labs/curator/internal/config"
	"github.com/curator-labs/curator/internal/eval"
	logpkg "github.com/curator-labs/curator/internal/logger"
	"github.com/curator-labs/curator/internal/transport/ragas"
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
		Use:           "ragbench",
		Short:         "Benchmark and compare curator retrieval quality",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		buildRunCmd(),
		buildCompareCmd(),
		buildDatasetCmd(),
		buildVisualizeCmd(),
	)
	return cmd
}

func loadEnv() (config.Config, *zap.Logger, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// buildRunCmd creates the "run" command: evaluate the live API against a
// question dataset and export the scored result.
func buildRunCmd() *cobra.Command {
	var (
		datasetPath string
		baseURL     string
		name        string
		corpus      string
		topK        int
		useHybrid   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark against the live API",
		Example: `  ragbench run --dataset dataset.json --name baseline
  ragbench run --dataset dataset.json --name bm25-only --hybrid=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ds, err := eval.LoadDataset(datasetPath)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}

			pipeline := eval.NewAPIPipeline(eval.APIPipelineConfig{
				BaseURL:   baseURL,
				Corpus:    corpus,
				TopK:      topK,
				UseHybrid: useHybrid,
			})

			// The RAGAS sidecar is optional. A typed nil *ragas.Client must
			// not end up inside the Scorer interface, so only a live client
			// is assigned.
			var scorer eval.Scorer
			if c := ragas.NewClient(ragas.Config{
				URL:     cfg.Ragas.URL,
				Timeout: time.Duration(cfg.Ragas.TimeoutSec) * time.Second,
				Logger:  logger,
			}); c != nil {
				scorer = c
			}

			evaluator := eval.New(eval.Config{
				Pipeline:        pipeline.Ask,
				Scorer:          scorer,
				CostPer1KTokens: cfg.Benchmark.CostPer1KTokens,
				Logger:          logger,
			})

			result, err := evaluator.Evaluate(cmd.Context(), ds)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			eval.PrintReport(os.Stdout, result)

			if err := os.MkdirAll(cfg.Benchmark.ResultsDir, 0o755); err != nil {
				return err
			}
			outPath := filepath.Join(cfg.Benchmark.ResultsDir, name+".json")
			if err := eval.ExportResult(result, outPath); err != nil {
				return fmt.Errorf("export result: %w", err)
			}
			fmt.Printf("\nResult written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the question dataset JSON (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the running API")
	cmd.Flags().StringVar(&name, "name", "benchmark", "Run name, used for the result file")
	cmd.Flags().StringVar(&corpus, "corpus", "arxiv", "Corpus to query: arxiv or financial")
	cmd.Flags().IntVar(&topK, "top-k", 5, "Chunks to retrieve per question")
	cmd.Flags().BoolVar(&useHybrid, "hybrid", true, "Use hybrid search instead of keyword-only")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// buildCompareCmd creates the "compare" command: side-by-side metric deltas
// across exported benchmark runs.
func buildCompareCmd() *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "compare <result.json> <result.json> [more...]",
		Short: "Compare two or more exported benchmark results",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			comparison, err := eval.LoadComparison(args)
			if err != nil {
				return err
			}
			comparison.PrintComparison(os.Stdout)

			if exportPath != "" {
				if err := comparison.Export(exportPath); err != nil {
					return fmt.Errorf("export comparison: %w", err)
				}
				fmt.Printf("\nComparison written to %s\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write the comparison summary to a JSON file")
	return cmd
}

// buildDatasetCmd creates the "dataset" command: sample indexed papers and
// generate question/answer pairs with an LLM.
func buildDatasetCmd() *cobra.Command {
	var (
		baseURL    string
		output     string
		numPairs   int
		categories []string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Generate an evaluation dataset from indexed papers",
		Example: `  ragbench dataset --num-pairs 25 --output dataset.json
  ragbench dataset --categories cs.CL --model gpt-4o-mini`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			apiKey := cfg.LLM.APIKey
			if apiKey == "" {
				apiKey = cfg.Embedding.APIKey
			}
			qa := eval.NewOpenAIQAGenerator(apiKey, model)
			generator := eval.NewDatasetGenerator(baseURL, qa, logger)

			ds, err := generator.Generate(cmd.Context(), numPairs, categories)
			if err != nil {
				return fmt.Errorf("generate dataset: %w", err)
			}
			if len(ds.Questions) == 0 {
				return fmt.Errorf("no question/answer pairs generated")
			}

			if err := eval.SaveDataset(ds, output); err != nil {
				return fmt.Errorf("save dataset: %w", err)
			}
			fmt.Printf("Wrote %d question/answer pairs to %s\n", len(ds.Questions), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the running API")
	cmd.Flags().StringVar(&output, "output", "dataset.json", "Output dataset path")
	cmd.Flags().IntVar(&numPairs, "num-pairs", 20, "Question/answer pairs to generate")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Restrict sampled papers to arXiv categories")
	cmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "Model for question generation")
	return cmd
}

// buildVisualizeCmd creates the "visualize" command: a static HTML report
// over one or more exported results.
func buildVisualizeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "visualize <result.json> [more...]",
		Short: "Render exported benchmark results as an HTML report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			names := make([]string, len(args))
			results := make([]eval.EvaluationResult, len(args))
			for i, path := range args {
				r, err := eval.LoadResult(path)
				if err != nil {
					return fmt.Errorf("load %s: %w", path, err)
				}
				names[i] = strippedName(path)
				results[i] = r
			}

			if err := eval.WriteHTMLReport(output, names, results); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "report.html", "Output HTML path")
	return cmd
}

func strippedName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
