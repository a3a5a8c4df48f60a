package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/scoring"
)

// Config holds the semsearch API configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	VectorSource VectorSourceConfig `yaml:"vector_source"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Search       SearchConfig       `yaml:"search"`
	Eval         EvalConfig         `yaml:"eval"`
	Auth         AuthConfig         `yaml:"auth"`
	Index        IndexConfig        `yaml:"index"`
	Storage      StorageConfig      `yaml:"storage"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VectorSourceConfig selects where vectors live and where candidates come from.
type VectorSourceConfig struct {
	Driver         string `yaml:"driver"` // redis, qdrant (default: redis)
	Addr           string `yaml:"addr"`   // qdrant gRPC address
	Collection     string `yaml:"collection"`
	DistanceMetric string `yaml:"distance_metric"` // cosine, l2, ip
	Algorithm      string `yaml:"algorithm"`       // hnsw, flat
}

// IndexConfig holds HNSW index and pagination settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider            string          `yaml:"provider"`
	APIKey              string          `yaml:"api_key"`
	BaseURL             string          `yaml:"base_url"`
	Model               string          `yaml:"model"`
	Dimensions          int             `yaml:"dimensions"`
	DocumentInstruction string          `yaml:"document_instruction"`
	QueryInstruction    string          `yaml:"query_instruction"`
	Stub                bool            `yaml:"stub"`
	StubDimensions      int             `yaml:"stub_dimensions"`
	CacheTTLSec         int             `yaml:"cache_ttl_sec"` // 0 = no expiry, <0 = cache off
	Retry               RetryConfig     `yaml:"retry"`
	RateLimit           RateLimitConfig `yaml:"rate_limit"`
}

// UseStub reports whether the deterministic hash embedder replaces the provider.
func (e EmbeddingConfig) UseStub() bool {
	return e.Stub || e.APIKey == ""
}

// RetryConfig holds embedder retry settings.
type RetryConfig struct {
	MaxRetries        int `yaml:"max_retries"`
	InitialIntervalMs int `yaml:"initial_interval_ms"`
	MaxIntervalMs     int `yaml:"max_interval_ms"`
}

// RateLimitConfig holds client-side embedder rate limiting. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SearchConfig holds ranking pipeline settings.
type SearchConfig struct {
	Scoring           ScoringConfig `yaml:"scoring"`
	ResultCacheTTLSec int           `yaml:"result_cache_ttl_sec"` // 0 = cache off
}

// ScoringConfig mirrors scoring.Config. Nil fields keep the built-in defaults.
type ScoringConfig struct {
	HybridEnabled   *bool              `yaml:"hybrid_enabled"`
	VectorWeightA   *float64           `yaml:"vector_weight_a"`
	VectorWeightB   *float64           `yaml:"vector_weight_b"`
	Profile         string             `yaml:"profile"` // B selects the B weight, anything else A
	RecencyEnabled  *bool              `yaml:"recency_enabled"`
	HalfLifeSeconds *float64           `yaml:"half_life_seconds"` // <= 0 disables decay
	BM25K1          *float64           `yaml:"bm25_k1"`
	BM25B           *float64           `yaml:"bm25_b"`
	Boosts          map[string]float64 `yaml:"boosts"`
	ResortByScore   bool               `yaml:"resort_by_score"`
}

// Resolve overlays the configured values on scoring.DefaultConfig.
func (s ScoringConfig) Resolve() scoring.Config {
	cfg := scoring.DefaultConfig()
	if s.HybridEnabled != nil {
		cfg.HybridEnabled = *s.HybridEnabled
	}
	if s.VectorWeightA != nil {
		cfg.VectorWeightA = *s.VectorWeightA
	}
	if s.VectorWeightB != nil {
		cfg.VectorWeightB = *s.VectorWeightB
	}
	if s.Profile != "" {
		cfg.Profile = s.Profile
	}
	if s.RecencyEnabled != nil {
		cfg.RecencyEnabled = *s.RecencyEnabled
	}
	if s.HalfLifeSeconds != nil {
		cfg.HalfLifeSeconds = *s.HalfLifeSeconds
	}
	if s.BM25K1 != nil {
		cfg.K1 = *s.BM25K1
	}
	if s.BM25B != nil {
		cfg.B = *s.BM25B
	}
	if len(s.Boosts) > 0 {
		cfg.Boosts = make(map[string]float64, len(s.Boosts))
		for k, v := range s.Boosts {
			cfg.Boosts[k] = v
		}
	}
	cfg.ResortByScore = s.ResortByScore
	return cfg
}

// VectorConfig derives the domain vectorization settings. The stub embedder
// defines the index dimensions when it replaces the provider.
func (c *Config) VectorConfig() domain.VectorConfig {
	dims := c.Embedding.Dimensions
	if c.Embedding.UseStub() {
		dims = c.Embedding.StubDimensions
	}
	return domain.VectorConfig{
		Model:          c.Embedding.Model,
		Dimensions:     dims,
		DistanceMetric: c.VectorSource.DistanceMetric,
		Algorithm:      c.VectorSource.Algorithm,
		StubDimensions: c.Embedding.StubDimensions,
	}
}

// EvalConfig holds startup evaluation settings.
type EvalConfig struct {
	RunOnStartup bool   `yaml:"run_on_startup"`
	K            int    `yaml:"k"`
	ReportPath   string `yaml:"report_path"`
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.VectorSource.Driver == "" {
		c.VectorSource.Driver = "redis"
	}
	if c.VectorSource.Collection == "" {
		c.VectorSource.Collection = "documents"
	}
	if c.VectorSource.DistanceMetric == "" {
		c.VectorSource.DistanceMetric = "cosine"
	}
	if c.VectorSource.Algorithm == "" {
		c.VectorSource.Algorithm = "hnsw"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.StubDimensions <= 0 {
		c.Embedding.StubDimensions = 64
	}
	if c.Embedding.Retry.MaxRetries <= 0 {
		c.Embedding.Retry.MaxRetries = 2
	}
	if c.Embedding.Retry.InitialIntervalMs <= 0 {
		c.Embedding.Retry.InitialIntervalMs = 200
	}
	if c.Embedding.Retry.MaxIntervalMs <= 0 {
		c.Embedding.Retry.MaxIntervalMs = 2000
	}
	if c.Embedding.RateLimit.RPS > 0 && c.Embedding.RateLimit.Burst <= 0 {
		c.Embedding.RateLimit.Burst = 1
	}
	if c.Eval.K <= 0 {
		c.Eval.K = 5
	}
	if c.Eval.ReportPath == "" {
		c.Eval.ReportPath = "target/eval/report.json"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "semsearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.VectorSource.Driver {
	case "redis":
	case "qdrant":
		if c.VectorSource.Addr == "" {
			return fmt.Errorf("vector_source.addr is required for qdrant")
		}
	default:
		return fmt.Errorf("vector_source.driver must be \"redis\" or \"qdrant\", got %q", c.VectorSource.Driver)
	}
	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.StubDimensions < 4 {
		return fmt.Errorf("embedding.stub_dimensions must be at least 4, got %d", c.Embedding.StubDimensions)
	}
	if c.Embedding.RateLimit.RPS < 0 {
		return fmt.Errorf("embedding.rate_limit.rps must not be negative")
	}

	// Any profile label is accepted (non-B selects the A weight), and a
	// half life <= 0 disables recency decay.
	sc := c.Search.Scoring
	if sc.BM25K1 != nil && *sc.BM25K1 < 0 {
		return fmt.Errorf("search.scoring.bm25_k1 must not be negative")
	}
	if sc.BM25B != nil && (*sc.BM25B < 0 || *sc.BM25B > 1) {
		return fmt.Errorf("search.scoring.bm25_b must be between 0 and 1")
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
