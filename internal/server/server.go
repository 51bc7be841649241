// Package server provides the HTTP API for Paperbase.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/extract"
	"github.com/paperbase/paperbase/internal/ingest"
	"github.com/paperbase/paperbase/internal/retriever"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/internal/vectorstore"
	"go.uber.org/zap"
)

// WatchService is the subset of the directory watcher the API needs.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the Paperbase API.
type Server struct {
	retriever *retriever.Retriever
	pipeline  *ingest.Pipeline
	storage   storage.Storage
	store     vectorstore.Store
	extractor *extract.Extractor
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server

	// watch is nil when the server runs without directory watching.
	watch        WatchService
	configPath   string
	fullConfig   *config.Config
	fullConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies. watch may be nil;
// configPath and fullConfig may be empty/nil when watch changes need not be
// persisted.
func NewServer(
	retr *retriever.Retriever,
	pipe *ingest.Pipeline,
	st storage.Storage,
	store vectorstore.Store,
	extractor *extract.Extractor,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
	fullConfig *config.Config,
) *Server {
	return &Server{
		retriever:  retr,
		pipeline:   pipe,
		storage:    st,
		store:      store,
		extractor:  extractor,
		config:     cfg,
		logger:     logger,
		watch:      watch,
		configPath: configPath,
		fullConfig: fullConfig,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
