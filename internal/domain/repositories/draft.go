package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// DraftRepository defines data access operations for draft records.
// Implementations must provide per-record atomicity; no cross-record
// transactional guarantees are assumed by the service layer.
type DraftRepository interface {
	// Create inserts a new draft record
	Create(ctx context.Context, draft *models.Draft) error

	// GetByID retrieves a draft by ID
	GetByID(ctx context.Context, id string) (*models.Draft, error)

	// List retrieves all drafts, newest first
	List(ctx context.Context) ([]models.Draft, error)

	// ListByStatus retrieves drafts with the given status, newest first
	ListByStatus(ctx context.Context, status models.DraftStatus) ([]models.Draft, error)

	// Update writes the draft's mutable fields (title, status, updated_at)
	Update(ctx context.Context, draft *models.Draft) error

	// Delete removes a draft record
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines data access operations for draft comments.
type CommentRepository interface {
	// Create inserts a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// ListByDraft retrieves all comments for a draft, oldest first
	ListByDraft(ctx context.Context, draftID string) ([]models.Comment, error)

	// DeleteByDraft removes all comments belonging to a draft
	DeleteByDraft(ctx context.Context, draftID string) error
}
