// Package main is the Paperbase CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/paperbase/paperbase/internal/chunker"
	"github.com/paperbase/paperbase/internal/cli"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/embedding"
	"github.com/paperbase/paperbase/internal/extract"
	"github.com/paperbase/paperbase/internal/fileid"
	"github.com/paperbase/paperbase/internal/ingest"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/retriever"
	"github.com/paperbase/paperbase/internal/server"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/internal/textproc"
	"github.com/paperbase/paperbase/internal/vectorstore"
	"github.com/paperbase/paperbase/internal/watcher"
	"github.com/paperbase/paperbase/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/paperbase/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "paperbase server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A .env in the working directory supplies env overrides (PAPERBASE_*)
	// during development; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("paperbase version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (watch events, skipped files, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pipe := components.Pipeline
	exts := cfg.Watch.Extensions
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := pipe.IngestFile(context.Background(), path, exts); err != nil && !models.IsExtractionEmpty(err) {
				logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := pipe.DeleteFile(context.Background(), path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Retriever,
		components.Pipeline,
		components.Storage,
		components.Store,
		extract.NewExtractor(),
		&cfg.Server,
		logger,
		watchSvc,
		resolvedConfigPath,
		cfg,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	components.saveSnapshot(cfg, logger)
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printQueryUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: paperbase query [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces; quoting is optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Questions mentioning a section ("what methodology...", "what are the limitations...")
boost chunks from that section of each paper.

Examples:
  paperbase query what methodology was used
  paperbase query "what are the limitations of this study"
  paperbase query --top-k 10 --output json sample sizes
`)
}

// buildQueryString joins all positional args with spaces so multi-word
// questions work the same with or without shell quoting.
func buildQueryString(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// queryArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "paperbase query \"q\" -top-k 5"
// would otherwise leave -top-k unparsed.
func queryArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runQuery() {
	queryArgs := queryArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", 0, "number of results (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printQueryUsage(fs) }
	_ = fs.Parse(queryArgs)

	if fs.NArg() < 1 {
		printQueryUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQueryString(fs.Args())
	if queryStr == "" {
		printQueryUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	query := &models.RetrievalQuery{Query: queryStr, TopK: *topK}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids SQLite lock conflict).
		response, err := queryViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteQueryResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	response, err := components.Retriever.Retrieve(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL string, query *models.RetrievalQuery) (*models.RetrievalResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RetrievalResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	VectorBackend       string  `json:"vector_backend"`
	EmbeddingProvider   string  `json:"embedding_provider,omitempty"`
	EmbeddingDimensions int     `json:"embedding_dimensions,omitempty"`
	TargetTokens        int     `json:"target_tokens,omitempty"`
	OverlapSentences    int     `json:"overlap_sentences,omitempty"`
	SemanticWeight      float64 `json:"semantic_weight,omitempty"`
	LexicalWeight       float64 `json:"lexical_weight,omitempty"`
	BoostFactor         float64 `json:"boost_factor,omitempty"`
	DatabasePath        string  `json:"database_path,omitempty"`
	VectorSnapshotPath  string  `json:"vector_snapshot_path,omitempty"`
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Documents      int64                 `json:"documents"`
	Chunks         int                   `json:"chunks"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Store.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Chunks:    chunkCount,
			Config: &statusConfigResponse{
				VectorBackend:       cfg.Storage.VectorBackend,
				EmbeddingProvider:   cfg.Embedding.Provider,
				EmbeddingDimensions: cfg.Embedding.Dimensions,
				TargetTokens:        cfg.Chunking.TargetTokens,
				OverlapSentences:    cfg.Chunking.OverlapSentences,
				SemanticWeight:      cfg.Retrieval.SemanticWeight,
				LexicalWeight:       cfg.Retrieval.LexicalWeight,
				BoostFactor:         cfg.Retrieval.BoostFactor,
				DatabasePath:        cfg.Storage.DatabasePath,
				VectorSnapshotPath:  cfg.Storage.VectorSnapshotPath,
			},
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.VectorSnapshotPath)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %d   # count of ingested documents\n", status.Documents)
		fmt.Printf("chunks:             %d   # count of retrievable chunks\n", status.Chunks)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # registry + vector snapshot on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("vector_backend:     %s\n", status.Config.VectorBackend)
			if status.Config.EmbeddingProvider != "" {
				fmt.Printf("embedding_provider: %s\n", status.Config.EmbeddingProvider)
			}
			if status.Config.EmbeddingDimensions > 0 {
				fmt.Printf("embedding_dims:     %d\n", status.Config.EmbeddingDimensions)
			}
			if status.Config.TargetTokens > 0 {
				fmt.Printf("target_tokens:      %d\n", status.Config.TargetTokens)
			}
			fmt.Printf("overlap_sentences:  %d\n", status.Config.OverlapSentences)
			if status.Config.SemanticWeight > 0 || status.Config.LexicalWeight > 0 {
				fmt.Printf("score_weights:      %.2f semantic / %.2f lexical\n",
					status.Config.SemanticWeight, status.Config.LexicalWeight)
			}
			if status.Config.BoostFactor > 0 {
				fmt.Printf("boost_factor:       %.2f\n", status.Config.BoostFactor)
			}
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.VectorSnapshotPath != "" {
				fmt.Printf("vector_snapshot:    %s\n", status.Config.VectorSnapshotPath)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: paperbase ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		exts := cfg.Watch.Extensions
		if exts == nil {
			exts = []string{".pdf", ".txt", ".md"}
		}
		n, err := components.Pipeline.IngestDirectory(ctx, path, exts)
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		components.saveSnapshot(cfg, logger)
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter.
	doc, err := components.Pipeline.IngestFile(ctx, path, nil)
	if err != nil && !models.IsExtractionEmpty(err) {
		fmt.Printf("Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	components.saveSnapshot(cfg, logger)
	if models.IsExtractionEmpty(err) {
		fmt.Printf("Document ingested with no usable text: %s\n", doc.ID)
		return
	}
	fmt.Printf("Document ingested: %s (%d chunks)\n", doc.ID, doc.ChunkCount)
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: paperbase watch <add|remove|list> [path]")
		fmt.Println("  paperbase watch add <path>     Add directory to watch")
		fmt.Println("  paperbase watch remove <path>  Remove directory from watch")
		fmt.Println("  paperbase watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: paperbase watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: paperbase watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	byPath := fs.Bool("path", false, "treat the argument as a file path instead of a document ID")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: paperbase delete [flags] <document-id>")
		os.Exit(1)
	}
	arg := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	docID := arg
	if *byPath {
		abs, _ := filepath.Abs(arg)
		docID = fileid.FileDocID(abs)
	}
	if err := components.Pipeline.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	components.saveSnapshot(cfg, logger)
	fmt.Printf("Document deleted: %s\n", docID)
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Embedder  embedding.Embedder
	Store     vectorstore.Store
	Pipeline  *ingest.Pipeline
	Retriever *retriever.Retriever
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// saveSnapshot persists the in-memory vector store to disk. A no-op for the
// pgvector backend, which is already durable.
func (c *Components) saveSnapshot(cfg *config.Config, logger *zap.Logger) {
	mem, ok := c.Store.(*vectorstore.MemoryStore)
	if !ok || cfg.Storage.VectorSnapshotPath == "" {
		return
	}
	if err := mem.Save(cfg.Storage.VectorSnapshotPath); err != nil && logger != nil {
		logger.Warn("vector snapshot save failed",
			zap.String("path", cfg.Storage.VectorSnapshotPath), zap.Error(err))
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	default:
		embedder = embedding.NewHTTPEmbedder(
			cfg.Embedding.URL,
			cfg.Embedding.Model,
			cfg.Embedding.Dimensions,
			cfg.Embedding.Timeout(),
			embedding.WithCache(embedding.NewCache(cfg.Embedding.CacheSize)),
		)
	}

	var store vectorstore.Store
	switch cfg.Storage.VectorBackend {
	case "pgvector":
		pg, err := vectorstore.NewPgvectorStore(context.Background(), cfg.Storage.PostgresURL, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize pgvector store: %w", err)
		}
		store = pg
	default:
		mem, err := vectorstore.NewMemoryStore(cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
		if cfg.Storage.VectorSnapshotPath != "" {
			if loadErr := mem.Load(cfg.Storage.VectorSnapshotPath); loadErr != nil && logger != nil {
				logger.Warn("vector snapshot load skipped (re-ingest to rebuild)",
					zap.String("path", cfg.Storage.VectorSnapshotPath), zap.Error(loadErr))
			}
		}
		store = mem
	}
	if logger != nil {
		logger.Info("vector store initialized", zap.String("backend", cfg.Storage.VectorBackend))
	}

	segmenter := textproc.NewSegmenter(cfg.Chunking.Abbreviations)
	detector := textproc.NewDetector()
	chunkOpts := []chunker.Option{}
	if debug && logger != nil {
		chunkOpts = append(chunkOpts, chunker.WithLogger(logger))
	}
	ch := chunker.New(cfg.Chunking.TargetTokens, cfg.Chunking.OverlapSentences, segmenter, detector, chunkOpts...)

	pipeOpts := []ingest.Option{}
	retrOpts := []retriever.Option{}
	if logger != nil {
		pipeOpts = append(pipeOpts, ingest.WithLogger(logger))
		retrOpts = append(retrOpts, retriever.WithLogger(logger))
	}
	pipe := ingest.NewPipeline(st, embedder, store, ch, extract.NewExtractor(), &cfg.Embedding, pipeOpts...)
	retr := retriever.New(embedder, store, &cfg.Retrieval, retrOpts...)

	return &Components{
		Storage:   st,
		Embedder:  embedder,
		Store:     store,
		Pipeline:  pipe,
		Retriever: retr,
	}, nil
}

func printUsage() {
	fmt.Println(`paperbase - Local hybrid retrieval for research papers

Usage:
  paperbase server [flags]            Start the HTTP server
  paperbase query [flags] <question>  Query ingested papers
  paperbase ingest [flags] <path>     Ingest a file or directory
  paperbase delete [flags] <id>       Delete a document
  paperbase status [flags]            Show registry/store status
  paperbase watch <add|remove|list>   Manage watched directories
  paperbase version                   Show version
  paperbase help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/paperbase/config.yaml)
  --debug            Enable debug logging (watch events, skipped files, etc.)

Query Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when server is not running.
  --top-k int        Number of results (0 = configured default)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Delete Flags:
  --config string    Config file path
  --path             Treat the argument as a file path instead of a document ID

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  paperbase server
  paperbase query what methodology was used
  paperbase query --output json "sample sizes"
  paperbase ingest papers/
  paperbase ingest paper.pdf
  paperbase delete file:3c9d...
  paperbase delete --path papers/paper.pdf
  paperbase status
  paperbase watch add /path/to/papers
  paperbase watch list`)
}
