package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/domain/services"
)

// contentService exposes published content from the hosting repository.
// It is a thin layer over the host adapter; the adapter owns retries and
// error classification.
type contentService struct {
	host   repositories.GitHost
	logger *slog.Logger
}

// NewContentService creates a new content service
func NewContentService(host repositories.GitHost, logger *slog.Logger) services.ContentService {
	return &contentService{
		host:   host,
		logger: logger,
	}
}

// GetTree returns all entries under the content root on the base branch
func (s *contentService) GetTree(ctx context.Context) ([]models.TreeEntry, error) {
	return s.host.ListTree(ctx)
}

// GetContent returns decoded text content of path at ref
func (s *contentService) GetContent(ctx context.Context, path, ref string) (*models.FileContent, error) {
	if err := checkContentPath(path); err != nil {
		return nil, err
	}
	return s.host.ReadFile(ctx, path, ref)
}

// GetHistory returns the commit history for path, most recent first
func (s *contentService) GetHistory(ctx context.Context, path string) ([]models.FileRevision, error) {
	if err := checkContentPath(path); err != nil {
		return nil, err
	}
	return s.host.ListFileHistory(ctx, path)
}

// UploadAsset commits a binary payload to path on branch
func (s *contentService) UploadAsset(ctx context.Context, branch, path string, data []byte) error {
	if err := checkContentPath(path); err != nil {
		return err
	}
	if len(data) == 0 {
		return &domain.ValidationError{Message: "asset payload is empty"}
	}
	message := fmt.Sprintf("Upload asset %s", path)
	return s.host.UploadBinary(ctx, branch, path, data, message)
}

// GetAsset returns the raw bytes of path at ref
func (s *contentService) GetAsset(ctx context.Context, path, ref string) ([]byte, error) {
	if err := checkContentPath(path); err != nil {
		return nil, err
	}
	return s.host.ReadBinary(ctx, path, ref)
}

func checkContentPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return &domain.ValidationError{Message: "path is required"}
	}
	if strings.HasPrefix(p, "/") {
		return &domain.ValidationError{Message: "path must be relative"}
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return &domain.ValidationError{Message: "path must not contain '..'"}
		}
	}
	return nil
}
