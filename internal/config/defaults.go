package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/paperbase/data/db/documents.db"
	}
	if cfg.Storage.VectorBackend == "" {
		cfg.Storage.VectorBackend = "memory"
	}
	if cfg.Storage.VectorSnapshotPath == "" && cfg.Storage.VectorBackend == "memory" {
		cfg.Storage.VectorSnapshotPath = "/usr/local/var/paperbase/data/indices/vectors.bin"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "http"
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:11434/api/embeddings"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Chunking.TargetTokens == 0 {
		cfg.Chunking.TargetTokens = 200
	}
	if cfg.Chunking.OverlapSentences == 0 {
		cfg.Chunking.OverlapSentences = 2
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 50
	}
	if cfg.Retrieval.SemanticWeight == 0 && cfg.Retrieval.LexicalWeight == 0 {
		cfg.Retrieval.SemanticWeight = 0.7
		cfg.Retrieval.LexicalWeight = 0.3
	}
	if cfg.Retrieval.BoostFactor == 0 {
		cfg.Retrieval.BoostFactor = 1.5
	}
	if cfg.Retrieval.CandidateMultiplier == 0 {
		cfg.Retrieval.CandidateMultiplier = 4
	}
	if cfg.Retrieval.TimeoutSeconds == 0 {
		cfg.Retrieval.TimeoutSeconds = 10
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
