package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"ragbot/internal/contextutil"
	"ragbot/internal/indexer"
	"ragbot/internal/library"
	"ragbot/internal/storage"
)

// maxUploadBytes caps document uploads at 8 MiB.
const maxUploadBytes = 8 << 20

// DocumentsHandler handles HTTP requests for document lifecycle management.
type DocumentsHandler struct {
	library  *library.Manager
	pipeline *indexer.Pipeline
	docRepo  storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(lib *library.Manager, pipeline *indexer.Pipeline, docRepo storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{
		library:  lib,
		pipeline: pipeline,
		docRepo:  docRepo,
	}
}

// DocumentSummary is one entry in the document listing.
type DocumentSummary struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	IndexedAt string `json:"indexed_at"`
}

// List handles GET /api/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.docRepo.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	summaries := make([]DocumentSummary, len(docs))
	for i, doc := range docs {
		summaries[i] = DocumentSummary{
			ID:        doc.ID,
			Filename:  doc.Filename,
			IndexedAt: doc.IndexedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(ctx, w, http.StatusOK, summaries)
}

// Upload handles POST /api/documents. The document is stored in the library
// and indexed synchronously so it is searchable when the response returns.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "invalid upload", "error", err)
		writeError(w, http.StatusBadRequest, "Expected multipart form with a 'file' field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	// Browsers may send a full client-side path; only the base name matters.
	filename := filepath.Base(header.Filename)
	absPath, err := h.library.Store(filename, content)
	if err != nil {
		logger.WarnContext(ctx, "failed to store upload", "filename", filename, "error", err)
		writeError(w, http.StatusBadRequest, "Only .md and .txt documents are supported")
		return
	}

	scanned := library.ScannedFile{Filename: filename, AbsPath: absPath}
	if err := h.pipeline.IndexFile(ctx, scanned); err != nil {
		logger.ErrorContext(ctx, "failed to index upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to index document")
		return
	}

	doc, err := h.docRepo.GetByFilename(ctx, scanned.Filename)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load indexed document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load indexed document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, DocumentSummary{
		ID:        doc.ID,
		Filename:  doc.Filename,
		IndexedAt: doc.IndexedAt.UTC().Format(time.RFC3339),
	})
}

// Rescan handles POST /api/documents/rescan. It re-indexes the library
// directory in the background; unchanged files are skipped by content hash.
func (h *DocumentsHandler) Rescan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	go func() {
		bg := contextutil.WithLogger(context.Background(), logger)
		if err := h.pipeline.IndexAll(bg); err != nil {
			logger.ErrorContext(bg, "library rescan finished with errors", "error", err)
		}
	}()

	writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "rescan started"})
}

// Delete handles DELETE /api/documents/{id}. It removes the index entries,
// the vectors, and the library file.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	doc, err := h.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	if err := h.pipeline.RemoveDocument(ctx, doc.ID); err != nil {
		logger.ErrorContext(ctx, "failed to remove document from index", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove document")
		return
	}
	if err := h.library.Remove(doc.Filename); err != nil {
		logger.WarnContext(ctx, "failed to remove library file", "filename", doc.Filename, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
