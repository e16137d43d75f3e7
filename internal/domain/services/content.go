package services

import (
	"context"

	"inkwell/internal/domain/models"
)

// ContentService exposes published content from the hosting repository:
// the tree under the content root, file contents at a ref, and per-file
// commit history. Reads default to the base branch.
type ContentService interface {
	// GetTree returns all entries under the content root on the base branch
	GetTree(ctx context.Context) ([]models.TreeEntry, error)

	// GetContent returns decoded text content of path at ref
	// (base branch when ref is empty)
	GetContent(ctx context.Context, path, ref string) (*models.FileContent, error)

	// GetHistory returns the commit history for path, most recent first
	GetHistory(ctx context.Context, path string) ([]models.FileRevision, error)

	// UploadAsset commits a binary payload to path on branch
	// (base branch when branch is empty)
	UploadAsset(ctx context.Context, branch, path string, data []byte) error

	// GetAsset returns the raw bytes of path at ref without text decoding
	GetAsset(ctx context.Context, path, ref string) ([]byte, error)
}
