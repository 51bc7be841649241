package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var query models.RetrievalQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("query request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.retriever.Retrieve(r.Context(), &query)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidQuery):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrRetrievalUnavailable):
			s.logger.Error("retrieval unavailable", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, models.ErrEmbeddingFailure):
			s.logger.Error("query embedding failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.logger.Error("retrieval failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleIngestDocument accepts either a JSON DocumentInput with pre-extracted
// pages or a multipart upload with a "file" field.
func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var input *models.DocumentInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		in, ok := s.decodeUpload(w, r)
		if !ok {
			return
		}
		input = in
	} else {
		input = &models.DocumentInput{}
		if err := json.NewDecoder(r.Body).Decode(input); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	s.logger.Debug("ingest document request", zap.String("id", input.ID), zap.String("title", input.Title))

	doc, err := s.pipeline.IngestDocument(r.Context(), input)
	if err != nil && !models.IsExtractionEmpty(err) {
		switch {
		case errors.Is(err, models.ErrEmbeddingFailure):
			s.logger.Error("ingestion embedding failed", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
		case errors.Is(err, models.ErrRetrievalUnavailable):
			s.logger.Error("vector store unavailable", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("ingestion failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	resp := map[string]interface{}{
		"id":          doc.ID,
		"status":      "ingested",
		"chunk_count": doc.ChunkCount,
	}
	if models.IsExtractionEmpty(err) {
		resp["warning"] = "no usable text after cleaning"
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

// decodeUpload extracts pages from a multipart file upload. On failure it has
// already written the error response and returns ok=false.
func (s *Server) decodeUpload(w http.ResponseWriter, r *http.Request) (*models.DocumentInput, bool) {
	if s.extractor == nil {
		s.respondError(w, http.StatusNotImplemented, "file upload not enabled")
		return nil, false
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return nil, false
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return nil, false
	}
	pages, err := s.extractor.ExtractPagesBytes(content, filepath.Ext(header.Filename))
	if err != nil {
		s.logger.Warn("upload extraction failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusBadRequest, "could not extract text: "+err.Error())
		return nil, false
	}
	return &models.DocumentInput{
		ID:    r.FormValue("id"),
		Title: header.Filename,
		Pages: pages,
	}, true
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.pipeline.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents": docCount,
		"chunks":    chunkCount,
	}

	if s.fullConfig != nil {
		configInfo := map[string]interface{}{
			"vector_backend":       s.fullConfig.Storage.VectorBackend,
			"embedding_provider":   s.fullConfig.Embedding.Provider,
			"embedding_dimensions": s.fullConfig.Embedding.Dimensions,
			"target_tokens":        s.fullConfig.Chunking.TargetTokens,
			"overlap_sentences":    s.fullConfig.Chunking.OverlapSentences,
			"semantic_weight":      s.fullConfig.Retrieval.SemanticWeight,
			"lexical_weight":       s.fullConfig.Retrieval.LexicalWeight,
			"boost_factor":         s.fullConfig.Retrieval.BoostFactor,
			"database_path":        s.fullConfig.Storage.DatabasePath,
			"vector_snapshot_path": s.fullConfig.Storage.VectorSnapshotPath,
		}
		resp["config"] = configInfo

		diskBytes, err := storage.DiskUsageBytes(
			s.fullConfig.Storage.DatabasePath,
			s.fullConfig.Storage.VectorSnapshotPath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.fullConfig == nil {
		return
	}
	s.fullConfigMu.Lock()
	s.fullConfig.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.fullConfig)
	s.fullConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
