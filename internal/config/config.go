// Package config provides configuration loading and structs for the Paperbase server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the document registry and vector store settings.
// VectorBackend selects "memory" (with an optional snapshot path) or
// "pgvector" (PostgresURL required; overridable via PAPERBASE_POSTGRES_URL).
type StorageConfig struct {
	DatabasePath       string `yaml:"database_path"`
	VectorBackend      string `yaml:"vector_backend"`
	VectorSnapshotPath string `yaml:"vector_snapshot_path"`
	PostgresURL        string `yaml:"postgres_url"`
}

// EmbeddingConfig holds embedding gateway settings. Provider is "http" for an
// Ollama-compatible endpoint or "mock" for the deterministic in-process
// embedder.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	URL            string `yaml:"url"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	CacheSize      int    `yaml:"cache_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Concurrency    int    `yaml:"concurrency"`
}

// Timeout returns the per-call embedding timeout.
func (e *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// ChunkingConfig holds chunker settings. Abbreviations, when set, replaces the
// built-in sentence-splitting abbreviation list for per-domain tuning.
type ChunkingConfig struct {
	TargetTokens     int      `yaml:"target_tokens"`
	OverlapSentences int      `yaml:"overlap_sentences"`
	Abbreviations    []string `yaml:"abbreviations"`
}

// RetrievalConfig holds hybrid scoring settings. SemanticWeight and
// LexicalWeight combine the two relevance signals; BoostFactor multiplies the
// score of chunks whose section matches the query's detected section family.
// CandidateMultiplier sets how many nearest neighbors are fetched per
// requested result.
type RetrievalConfig struct {
	DefaultTopK         int     `yaml:"default_top_k"`
	MaxTopK             int     `yaml:"max_top_k"`
	SemanticWeight      float64 `yaml:"semantic_weight"`
	LexicalWeight       float64 `yaml:"lexical_weight"`
	BoostFactor         float64 `yaml:"boost_factor"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
}

// Timeout returns the per-query retrieval timeout.
func (r *RetrievalConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorSnapshotPath = expandPath(cfg.Storage.VectorSnapshotPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// ApplyEnv overrides settings that commonly carry credentials from the
// environment.
func ApplyEnv(cfg *Config) {
	if url := os.Getenv("PAPERBASE_POSTGRES_URL"); url != "" {
		cfg.Storage.PostgresURL = url
	}
	if url := os.Getenv("PAPERBASE_EMBEDDING_URL"); url != "" {
		cfg.Embedding.URL = url
	}
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
