package handler

import (
	"io"
	"log/slog"
	"net/http"

	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// maxAssetSize caps binary uploads at 25MB
const maxAssetSize = 25 << 20

// ContentHandler handles published-content HTTP requests
type ContentHandler struct {
	contentService services.ContentService
	logger         *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService services.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetTree returns the content tree on the base branch
// GET /api/tree
func (h *ContentHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	entries, err := h.contentService.GetTree(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

// GetContent returns a text file at an optional ref
// GET /api/content/{path...}?ref=branch
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.contentService.GetContent(r.Context(), r.PathValue("path"), r.URL.Query().Get("ref"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// GetHistory returns the commit history of a file
// GET /api/history/{path...}
func (h *ContentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	revisions, err := h.contentService.GetHistory(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"revisions": revisions,
		"total":     len(revisions),
	})
}

// GetAsset returns a binary file at an optional ref
// GET /api/assets/{path...}?ref=branch
func (h *ContentHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	data, err := h.contentService.GetAsset(r.Context(), r.PathValue("path"), r.URL.Query().Get("ref"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// UploadAsset commits a binary payload
// POST /api/assets/{path...}?branch=name
func (h *ContentHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "asset too large")
		return
	}

	branch := r.URL.Query().Get("branch")
	if err := h.contentService.UploadAsset(r.Context(), branch, r.PathValue("path"), data); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
