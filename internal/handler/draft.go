package handler

import (
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/domain/models"
	"inkwell/internal/domain/services"
	"inkwell/internal/httputil"
)

// DraftHandler handles draft lifecycle HTTP requests
type DraftHandler struct {
	draftService services.DraftService
	logger       *slog.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftService services.DraftService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		logger:       logger,
	}
}

// CreateDraft creates a new draft
// POST /api/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDraftRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Author = httputil.GetPrincipal(r)

	draft, err := h.draftService.CreateDraft(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, draft)
}

// ListDrafts lists drafts, optionally filtered by status
// GET /api/drafts?status=pending
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	var status *models.DraftStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.DraftStatus(v)
		status = &s
	}

	drafts, err := h.draftService.ListDrafts(r.Context(), status)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": drafts,
		"total":  len(drafts),
	})
}

// GetDraft retrieves a draft by ID
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.draftService.GetDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// UpdateDraft commits new content to a pending draft
// PATCH /api/drafts/{id}
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateDraftRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.draftService.UpdateDraft(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// ApproveDraft merges a pending draft into the base branch
// POST /api/drafts/{id}/approve
func (h *DraftHandler) ApproveDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.draftService.ApproveDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// RejectDraft rejects a pending draft
// POST /api/drafts/{id}/reject
func (h *DraftHandler) RejectDraft(w http.ResponseWriter, r *http.Request) {
	var req services.RejectDraftRequest
	if r.ContentLength > 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	req.Reviewer = httputil.GetPrincipal(r)

	draft, err := h.draftService.RejectDraft(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// DeleteDraft removes a draft, its comments, and its branch
// DELETE /api/drafts/{id}
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.draftService.DeleteDraft(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListComments lists a draft's comments
// GET /api/drafts/{id}/comments
func (h *DraftHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.draftService.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
		"total":    len(comments),
	})
}

// AddComment appends a comment to a draft in any status
// POST /api/drafts/{id}/comments
func (h *DraftHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req services.AddCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Author = httputil.GetPrincipal(r)

	comment, err := h.draftService.AddComment(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, comment)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *DraftHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
