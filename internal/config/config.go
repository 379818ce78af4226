// Package config loads croptalk settings from per-environment YAML files.
// Values may reference the environment as ${VAR} or ${VAR:-fallback}.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/croptalk/internal/retry"
)

// Config is the root of a config file. Keys missing from the file keep the
// values of Default.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Storage   StorageConfig   `yaml:"storage"`
	Lookups   LookupsConfig   `yaml:"lookups"`
	Retry     RetryConfig     `yaml:"retry"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig selects the log level. Empty picks one from the environment name.
type LoggingConfig struct {
	Level string `yaml:"level"`
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

// DatabaseConfig holds Valkey / Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string      `yaml:"provider"` // metrics label only
	APIKey              string      `yaml:"api_key"`
	BaseURL             string      `yaml:"base_url"`
	Model               string      `yaml:"model"`
	Dimensions          int         `yaml:"dimensions"`
	QueryInstruction    string      `yaml:"query_instruction"`
	DocumentInstruction string      `yaml:"document_instruction"`
	Cache               CacheConfig `yaml:"cache"`
}

// CacheConfig holds query embedding cache settings.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLSec    int    `yaml:"ttl_sec"` // 0 = no expiry
}

// ChatConfig holds chat model settings.
type ChatConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// RetrievalConfig holds passage index and document formatting settings.
type RetrievalConfig struct {
	IndexName        string          `yaml:"index_name"`
	KeyPrefix        string          `yaml:"key_prefix"`
	TopK             int             `yaml:"top_k"`
	URLBase          string          `yaml:"url_base"`
	FullTextCategory string          `yaml:"full_text_category"`
	Wildcards        WildcardsConfig `yaml:"wildcards"`
	HNSWM            int             `yaml:"hnsw_m"`
	HNSWEFConstruct  int             `yaml:"hnsw_ef_construction"`
}

// WildcardsConfig holds the codes of documents that apply to every value of a facet.
type WildcardsConfig struct {
	State     string `yaml:"state"`
	County    string `yaml:"county"`
	Commodity string `yaml:"commodity"`
}

// StorageConfig holds document storage settings.
type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config holds the full-text document bucket settings.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	MaxObjectSizeMB int    `yaml:"max_object_size_mb"`
}

// LookupsConfig points at an external facet directory. Empty uses the built-in one.
type LookupsConfig struct {
	Path string `yaml:"path"`
}

// RetryConfig bounds retries of network calls.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
}

// Policy converts the settings into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = r.MaxAttempts
	p.InitialDelay = time.Duration(r.InitialDelayMs) * time.Millisecond
	p.MaxDelay = time.Duration(r.MaxDelayMs) * time.Millisecond
	return p
}

// Default returns the settings used for keys a file leaves out.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080, ReadTimeoutSec: 10, WriteTimeoutSec: 60, ShutdownSec: 10},
		Database: DatabaseConfig{
			ReadinessTimeout: 10,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			Cache:      CacheConfig{KeyPrefix: "croptalk:emb:"},
		},
		Chat: ChatConfig{Model: "gpt-4o-mini"},
		Retrieval: RetrievalConfig{
			IndexName:        "croptalk:passages:idx",
			KeyPrefix:        "croptalk:passage:",
			TopK:             3,
			URLBase:          "https://croptalk-spoi.s3.us-east-2.amazonaws.com",
			FullTextCategory: "SP",
			Wildcards:        WildcardsConfig{State: "00", County: "00", Commodity: "0000"},
			HNSWM:            16,
			HNSWEFConstruct:  200,
		},
		Storage: StorageConfig{S3: S3Config{
			Bucket:          "croptalk-spoi",
			Region:          "us-east-2",
			MaxObjectSizeMB: 64,
		}},
		Retry: RetryConfig{MaxAttempts: 3, InitialDelayMs: 200, MaxDelayMs: 5000},
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTP.Port > 0 && c.HTTP.Port <= 65535, "http.port must be in 1..65535, got %d", c.HTTP.Port)
	check(c.HTTP.ReadTimeoutSec > 0 && c.HTTP.WriteTimeoutSec > 0 && c.HTTP.ShutdownSec > 0,
		"http timeouts must be positive")
	check(len(c.Database.Addrs) > 0, "database.addrs is required")
	check(c.Database.ReadinessTimeout > 0, "database.readiness_timeout_sec must be positive")
	check(c.Embedding.Model != "", "embedding.model is required")
	check(c.Embedding.Dimensions > 0, "embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	check(c.Embedding.Cache.TTLSec >= 0, "embedding.cache.ttl_sec must not be negative, got %d", c.Embedding.Cache.TTLSec)
	check(c.Chat.Temperature >= 0 && c.Chat.Temperature <= 2,
		"chat.temperature must be in 0..2, got %v", c.Chat.Temperature)
	check(c.Retrieval.TopK > 0 && c.Retrieval.TopK <= 100, "retrieval.top_k must be in 1..100, got %d", c.Retrieval.TopK)
	check(c.Retrieval.HNSWM > 0 && c.Retrieval.HNSWEFConstruct > 0, "retrieval HNSW parameters must be positive")

	w := c.Retrieval.Wildcards
	check(len(w.State) == 2 && len(w.County) == 2 && len(w.Commodity) == 4,
		"retrieval.wildcards must be 2-char state and county codes and a 4-char commodity code, got %q/%q/%q",
		w.State, w.County, w.Commodity)

	check(c.Retry.MaxAttempts > 0, "retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	check(c.Retry.InitialDelayMs >= 0 && c.Retry.MaxDelayMs >= c.Retry.InitialDelayMs,
		"retry delays must satisfy 0 <= initial_delay_ms <= max_delay_ms")

	return errors.Join(errs...)
}
