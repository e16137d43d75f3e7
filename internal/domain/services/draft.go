package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// DraftService owns the draft lifecycle state machine. Status checks are
// read-then-act: a check followed by a remote mutation is not atomic, so a
// narrow race exists between approve/reject and an in-flight update. This is
// an accepted limitation of the single-admin review workflow, not handled.
type DraftService interface {
	// CreateDraft creates the backing branch from the base branch head,
	// commits initial content when supplied, and persists a pending draft.
	// No record is persisted if branch creation fails; a commit failure
	// after branch creation still leaves a valid empty-content draft.
	CreateDraft(ctx context.Context, req *CreateDraftRequest) (*models.Draft, error)

	// UpdateDraft commits new content to the draft branch. Requires status
	// pending. ExpectedFingerprint, when set, aborts with ConflictError if
	// a concurrent writer changed the file first.
	UpdateDraft(ctx context.Context, draftID string, req *UpdateDraftRequest) (*models.Draft, error)

	// ApproveDraft opens and squash-merges a PR from the draft branch, then
	// deletes the branch and marks the draft approved. A merge failure
	// leaves the draft pending and the branch intact for retry.
	ApproveDraft(ctx context.Context, draftID string) (*models.Draft, error)

	// RejectDraft deletes the draft branch (already-deleted is success),
	// optionally appends a rejection comment, and marks the draft rejected.
	RejectDraft(ctx context.Context, draftID string, req *RejectDraftRequest) (*models.Draft, error)

	// DeleteDraft is permitted in any status: best-effort branch deletion,
	// then removal of the draft record and its comments.
	DeleteDraft(ctx context.Context, draftID string) error

	// GetDraft retrieves a draft by ID
	GetDraft(ctx context.Context, draftID string) (*models.Draft, error)

	// ListDrafts lists drafts, optionally filtered by status
	ListDrafts(ctx context.Context, status *models.DraftStatus) ([]models.Draft, error)

	// ListComments lists a draft's comments, oldest first
	ListComments(ctx context.Context, draftID string) ([]models.Comment, error)

	// AddComment appends a comment in any draft status. Does not bump the
	// draft's updated_at.
	AddComment(ctx context.Context, draftID string, req *AddCommentRequest) (*models.Comment, error)
}

// CreateDraftRequest represents a draft creation request
type CreateDraftRequest struct {
	DocPath        string  `json:"doc_path"`
	Title          string  `json:"title"`
	InitialContent *string `json:"initial_content,omitempty"`
	Author         *models.Principal `json:"-"` // set by handler from auth context
}

// UpdateDraftRequest represents a draft content update
type UpdateDraftRequest struct {
	Content             string `json:"content"`
	Title               *string `json:"title,omitempty"` // mutable only while pending
	ExpectedFingerprint string `json:"expected_fingerprint,omitempty"`
}

// RejectDraftRequest represents a draft rejection
type RejectDraftRequest struct {
	Reason   string            `json:"reason,omitempty"`
	Reviewer *models.Principal `json:"-"` // set by handler from auth context
}

// AddCommentRequest represents a comment creation request
type AddCommentRequest struct {
	Content string            `json:"content"`
	Author  *models.Principal `json:"-"` // set by handler from auth context
}
