package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// GitHost translates draft lifecycle intents into branch/commit/PR primitives
// on the remote hosting API, scoped to one configured repository. Every
// implementation classifies failures into the domain remote error types and
// never retries non-retryable client errors.
type GitHost interface {
	// ListTree returns all paths under the content root on the base branch,
	// with the content root prefix stripped.
	ListTree(ctx context.Context) ([]models.TreeEntry, error)

	// ReadFile returns the decoded text content of path at ref (base branch
	// when ref is empty). Returns NotFoundError when the path is absent.
	ReadFile(ctx context.Context, path, ref string) (*models.FileContent, error)

	// CreateBranch creates a new branch at the current head of the base
	// branch and returns that head commit SHA.
	CreateBranch(ctx context.Context, name string) (string, error)

	// CommitFile writes content to path on branch. When expectedFingerprint
	// is non-empty and differs from the path's current blob SHA on the
	// branch, the write is aborted with ConflictError before any mutation.
	// An empty expectedFingerprint means last-writer-wins by caller's choice.
	CommitFile(ctx context.Context, branch, path, content, message, expectedFingerprint string) error

	// OpenPullRequest opens a PR from branch into the base branch and
	// returns its identifier.
	OpenPullRequest(ctx context.Context, branch, title, body string) (int, error)

	// MergePullRequest squash-merges the given PR.
	MergePullRequest(ctx context.Context, prNumber int) error

	// DeleteBranch deletes a branch ref. A missing ref (404) is success:
	// the branch is already gone.
	DeleteBranch(ctx context.Context, name string) error

	// ListFileHistory returns the commit history touching path on the base
	// branch, most recent first, capped at one page.
	ListFileHistory(ctx context.Context, path string) ([]models.FileRevision, error)

	// UploadBinary commits raw bytes to path (same conflict semantics as
	// CommitFile, without text decoding). Empty branch means base branch.
	UploadBinary(ctx context.Context, branch, path string, data []byte, message string) error

	// ReadBinary returns the raw bytes of path at ref without text decoding.
	ReadBinary(ctx context.Context, path, ref string) ([]byte, error)
}
