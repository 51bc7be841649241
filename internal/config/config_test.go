package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/documents.db"
watch:
  directories: ["./papers"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "papers")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.VectorBackend != "memory" {
		t.Errorf("default vector backend: got %s", cfg.Storage.VectorBackend)
	}
	if cfg.Chunking.TargetTokens != 200 || cfg.Chunking.OverlapSentences != 2 {
		t.Errorf("default chunking: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.SemanticWeight != 0.7 || cfg.Retrieval.LexicalWeight != 0.3 {
		t.Errorf("default scoring weights: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.BoostFactor != 1.5 {
		t.Errorf("default boost factor: got %f", cfg.Retrieval.BoostFactor)
	}
	if cfg.Retrieval.CandidateMultiplier != 4 {
		t.Errorf("default candidate multiplier: got %d", cfg.Retrieval.CandidateMultiplier)
	}
	if cfg.Embedding.Concurrency != 4 {
		t.Errorf("default embedding concurrency: got %d", cfg.Embedding.Concurrency)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}

func TestApplyDefaults_customWeightsKept(t *testing.T) {
	cfg := &Config{Retrieval: RetrievalConfig{SemanticWeight: 0.5, LexicalWeight: 0.5}}
	ApplyDefaults(cfg)
	if cfg.Retrieval.SemanticWeight != 0.5 || cfg.Retrieval.LexicalWeight != 0.5 {
		t.Errorf("explicit weights overwritten: %+v", cfg.Retrieval)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PAPERBASE_POSTGRES_URL", "postgres://test")
	cfg := &Config{}
	ApplyEnv(cfg)
	if cfg.Storage.PostgresURL != "postgres://test" {
		t.Errorf("postgres url not taken from env: %q", cfg.Storage.PostgresURL)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	f := false
	if (&WatchConfig{}).RecursiveOrDefault() != true {
		t.Error("nil should default to true")
	}
	if (&WatchConfig{Recursive: &f}).RecursiveOrDefault() {
		t.Error("explicit false should stick")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
