package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the curator API and pipeline configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ragas     RagasConfig     `yaml:"ragas"`
	SEC       SECConfig       `yaml:"sec"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Postgres catalog settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds OpenSearch settings.
type SearchConfig struct {
	Addrs          []string `yaml:"addrs"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	PapersIndex    string   `yaml:"papers_index"`
	FinancialIndex string   `yaml:"financial_index"`
	Pipeline       string   `yaml:"pipeline"` // RRF search pipeline id
}

// CacheConfig holds the optional Redis/Valkey embedding cache settings.
type CacheConfig struct {
	Addrs     []string `yaml:"addrs"` // empty = cache disabled
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings (OpenAI-compatible API).
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	Provider   string `yaml:"provider"` // metric label, e.g. "jina", "nebius"
}

// LLMConfig holds generation provider settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, ollama, gemini
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"` // for ollama / openai-compatible gateways
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RagasConfig holds the external RAGAS scorer service settings.
type RagasConfig struct {
	URL        string `yaml:"url"` // empty = scoring disabled, zeros reported
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SECConfig holds SEC EDGAR client settings.
type SECConfig struct {
	UserAgent          string `yaml:"user_agent"` // SEC requires identification
	RateLimitPerSecond int    `yaml:"rate_limit_per_second"`
	BaseURL            string `yaml:"base_url"`
}

// ArxivConfig holds arXiv API client settings.
type ArxivConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Categories []string `yaml:"categories"`
	MaxResults int      `yaml:"max_results"`
}

// ChunkingConfig holds sliding-window chunker settings.
type ChunkingConfig struct {
	ChunkWords   int `yaml:"chunk_words"`
	OverlapWords int `yaml:"overlap_words"`
}

// BenchmarkConfig holds evaluation settings.
type BenchmarkConfig struct {
	CostPer1KTokens float64 `yaml:"cost_per_1k_tokens"`
	ResultsDir      string  `yaml:"results_dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Ask latency includes an LLM round-trip.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.PapersIndex == "" {
		c.Search.PapersIndex = "arxiv-papers-chunks"
	}
	if c.Search.FinancialIndex == "" {
		c.Search.FinancialIndex = "financial-docs-chunks"
	}
	if c.Search.Pipeline == "" {
		c.Search.Pipeline = "hybrid-rrf-pipeline"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "curator:"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 50
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Ragas.TimeoutSec <= 0 {
		c.Ragas.TimeoutSec = 300
	}
	if c.SEC.RateLimitPerSecond <= 0 {
		// SEC allows at most 10 requests per second.
		c.SEC.RateLimitPerSecond = 10
	}
	if c.SEC.BaseURL == "" {
		c.SEC.BaseURL = "https://www.sec.gov"
	}
	if c.Arxiv.BaseURL == "" {
		c.Arxiv.BaseURL = "https://export.arxiv.org/api/query"
	}
	if c.Arxiv.MaxResults <= 0 {
		c.Arxiv.MaxResults = 25
	}
	if c.Chunking.ChunkWords <= 0 {
		c.Chunking.ChunkWords = 600
	}
	if c.Chunking.OverlapWords <= 0 {
		c.Chunking.OverlapWords = 100
	}
	if c.Benchmark.CostPer1KTokens <= 0 {
		c.Benchmark.CostPer1KTokens = 0.0015
	}
	if c.Benchmark.ResultsDir == "" {
		c.Benchmark.ResultsDir = "benchmark_results"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.Search.Addrs) == 0 {
		return fmt.Errorf("search.addrs is required")
	}
	switch c.LLM.Provider {
	case "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("llm.provider must be openai, ollama, or gemini, got %q", c.LLM.Provider)
	}
	if c.SEC.RateLimitPerSecond > 10 {
		return fmt.Errorf("sec.rate_limit_per_second must not exceed 10, got %d", c.SEC.RateLimitPerSecond)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
