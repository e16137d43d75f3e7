package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	maxDocPathLength = 500
	maxTitleLength   = 200
	maxCommentLength = 10000
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// draftService implements the DraftService interface. Status checks are
// read-then-act: no lock spans the record read and the remote mutation, so
// approve/reject can race a concurrent update. The record store serializes
// writes per draft id; content conflicts are handled by the fingerprint
// check inside CommitFile, not here.
type draftService struct {
	drafts   repositories.DraftRepository
	comments repositories.CommentRepository
	tx       repositories.TransactionManager
	host     repositories.GitHost
	logger   *slog.Logger
}

// NewDraftService creates a new draft lifecycle service
func NewDraftService(
	drafts repositories.DraftRepository,
	comments repositories.CommentRepository,
	tx repositories.TransactionManager,
	host repositories.GitHost,
	logger *slog.Logger,
) services.DraftService {
	return &draftService{
		drafts:   drafts,
		comments: comments,
		tx:       tx,
		host:     host,
		logger:   logger,
	}
}

// branchNameFor derives a branch name from the document path plus a short
// random suffix, so concurrent drafts against the same path never collide.
func branchNameFor(docPath string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(docPath), "-"), "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("draft/%s-%s", slug, suffix)
}

// CreateDraft creates the backing branch, commits initial content when
// supplied, and persists a pending draft record.
//
// The record is persisted before the initial commit: a branch-creation
// failure leaves no record behind, while a failed initial commit leaves a
// valid empty-content pending draft whose content can be supplied via
// UpdateDraft. That asymmetry is deliberate.
func (s *draftService) CreateDraft(ctx context.Context, req *services.CreateDraftRequest) (*models.Draft, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	branch := branchNameFor(req.DocPath)

	if _, err := s.host.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("create draft branch '%s': %w", branch, err)
	}

	now := time.Now()
	draft := &models.Draft{
		ID:         uuid.NewString(),
		DocPath:    req.DocPath,
		BranchName: branch,
		Title:      strings.TrimSpace(req.Title),
		Status:     models.DraftStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !req.Author.Anonymous() {
		draft.AuthorID = req.Author.ID
		draft.AuthorEmail = req.Author.Email
	}

	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft created",
		"draft_id", draft.ID,
		"doc_path", draft.DocPath,
		"branch", draft.BranchName,
	)

	if req.InitialContent != nil {
		message := fmt.Sprintf("Add draft content for %s", req.DocPath)
		if err := s.host.CommitFile(ctx, branch, req.DocPath, *req.InitialContent, message, ""); err != nil {
			return nil, fmt.Errorf("commit initial content for draft %s: %w", draft.ID, err)
		}
	}

	return draft, nil
}

// UpdateDraft commits new content to the draft branch. Requires status
// pending; a supplied expected fingerprint turns the remote write into a
// compare-then-write.
func (s *draftService) UpdateDraft(ctx context.Context, draftID string, req *services.UpdateDraftRequest) (*models.Draft, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if draft.Status != models.DraftStatusPending {
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("cannot edit draft %s with status '%s'", draftID, draft.Status),
		}
	}

	message := fmt.Sprintf("Update draft content for %s", draft.DocPath)
	if err := s.host.CommitFile(ctx, draft.BranchName, draft.DocPath, req.Content, message, req.ExpectedFingerprint); err != nil {
		return nil, err
	}

	if req.Title != nil {
		draft.Title = strings.TrimSpace(*req.Title)
	}
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft updated", "draft_id", draft.ID, "branch", draft.BranchName)
	return draft, nil
}

// ApproveDraft opens and squash-merges a PR from the draft branch, deletes
// the branch, and marks the draft approved. A merge failure leaves the draft
// pending and the branch intact for retry.
//
// The status write is the last step. A crash between branch deletion and the
// status write leaves the draft pending with no backing branch; that window
// is accepted and surfaced rather than reconciled automatically.
func (s *draftService) ApproveDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if draft.Status != models.DraftStatusPending {
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("cannot approve draft %s with status '%s'", draftID, draft.Status),
		}
	}

	prTitle := draft.Title
	if prTitle == "" {
		prTitle = fmt.Sprintf("Draft changes to %s", draft.DocPath)
	}
	prBody := fmt.Sprintf("Approved draft %s proposing changes to %s.", draft.ID, draft.DocPath)

	prNumber, err := s.host.OpenPullRequest(ctx, draft.BranchName, prTitle, prBody)
	if err != nil {
		return nil, fmt.Errorf("open pull request for draft %s: %w", draft.ID, err)
	}

	if err := s.host.MergePullRequest(ctx, prNumber); err != nil && !isAlreadyMerged(err) {
		return nil, fmt.Errorf("merge pull request #%d for draft %s: %w", prNumber, draft.ID, err)
	}

	if err := s.host.DeleteBranch(ctx, draft.BranchName); err != nil {
		return nil, fmt.Errorf("delete branch '%s' after merge: %w", draft.BranchName, err)
	}

	draft.Status = models.DraftStatusApproved
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft approved",
		"draft_id", draft.ID,
		"pr_number", prNumber,
		"branch", draft.BranchName,
	)
	return draft, nil
}

// isAlreadyMerged recognizes the hosting API's answer to merging a PR that a
// previous partially-failed approve already merged.
func isAlreadyMerged(err error) bool {
	var clientErr *domain.RemoteClientError
	return errors.As(err, &clientErr) &&
		clientErr.Status == http.StatusMethodNotAllowed &&
		strings.Contains(strings.ToLower(clientErr.Message), "already merged")
}

// RejectDraft deletes the draft branch, optionally records the rejection
// reason as a comment, and marks the draft rejected. An already-deleted
// branch counts as success: a prior partial failure may have removed it.
func (s *draftService) RejectDraft(ctx context.Context, draftID string, req *services.RejectDraftRequest) (*models.Draft, error) {
	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if draft.Status != models.DraftStatusPending {
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("cannot reject draft %s with status '%s'", draftID, draft.Status),
		}
	}

	if err := s.host.DeleteBranch(ctx, draft.BranchName); err != nil {
		return nil, fmt.Errorf("delete branch '%s': %w", draft.BranchName, err)
	}

	if req != nil && strings.TrimSpace(req.Reason) != "" {
		comment := &models.Comment{
			ID:        uuid.NewString(),
			DraftID:   draft.ID,
			Content:   fmt.Sprintf("Rejected: %s", strings.TrimSpace(req.Reason)),
			CreatedAt: time.Now(),
		}
		if !req.Reviewer.Anonymous() {
			comment.AuthorID = req.Reviewer.ID
			comment.AuthorEmail = req.Reviewer.Email
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, err
		}
	}

	draft.Status = models.DraftStatusRejected
	draft.UpdatedAt = time.Now()
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft rejected", "draft_id", draft.ID, "branch", draft.BranchName)
	return draft, nil
}

// DeleteDraft removes the draft's branch (absence tolerated), its comments,
// and the record itself. Permitted in any status.
func (s *draftService) DeleteDraft(ctx context.Context, draftID string) error {
	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return err
	}

	if err := s.host.DeleteBranch(ctx, draft.BranchName); err != nil {
		return fmt.Errorf("delete branch '%s': %w", draft.BranchName, err)
	}

	// Comments and record go together or not at all
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.comments.DeleteByDraft(ctx, draftID); err != nil {
			return err
		}
		return s.drafts.Delete(ctx, draftID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("draft deleted", "draft_id", draftID, "branch", draft.BranchName)
	return nil
}

// GetDraft retrieves a draft by ID
func (s *draftService) GetDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	return s.drafts.GetByID(ctx, draftID)
}

// ListDrafts lists drafts, optionally filtered by status
func (s *draftService) ListDrafts(ctx context.Context, status *models.DraftStatus) ([]models.Draft, error) {
	if status == nil {
		return s.drafts.List(ctx)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status '%s'", domain.ErrValidation, *status)
	}
	return s.drafts.ListByStatus(ctx, *status)
}

// ListComments lists a draft's comments, oldest first
func (s *draftService) ListComments(ctx context.Context, draftID string) ([]models.Comment, error) {
	// Distinguish "no comments" from "no such draft"
	if _, err := s.drafts.GetByID(ctx, draftID); err != nil {
		return nil, err
	}
	return s.comments.ListByDraft(ctx, draftID)
}

// AddComment appends a comment in any draft status. Reviewer feedback on
// rejected drafts must remain possible. Does not bump the draft's updated_at.
func (s *draftService) AddComment(ctx context.Context, draftID string, req *services.AddCommentRequest) (*models.Comment, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, maxCommentLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.drafts.GetByID(ctx, draftID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		DraftID:   draftID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if !req.Author.Anonymous() {
		comment.AuthorID = req.Author.ID
		comment.AuthorEmail = req.Author.Email
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *draftService) validateCreateRequest(req *services.CreateDraftRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.DocPath,
			validation.Required,
			validation.Length(1, maxDocPathLength),
			validation.By(checkRelativePath),
		),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, maxTitleLength),
		),
	)
}

func (s *draftService) validateUpdateRequest(req *services.UpdateDraftRequest) error {
	rules := []*validation.FieldRules{
		validation.Field(&req.Content, validation.Required),
	}
	if req.Title != nil {
		rules = append(rules, validation.Field(&req.Title, validation.Length(1, maxTitleLength)))
	}
	return validation.ValidateStruct(req, rules...)
}

// checkRelativePath rejects absolute paths and parent-directory traversal.
func checkRelativePath(value interface{}) error {
	p, _ := value.(string)
	if strings.HasPrefix(p, "/") {
		return errors.New("path must be relative")
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return errors.New("path must not contain '..'")
		}
	}
	return nil
}
