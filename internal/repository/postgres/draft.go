package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDraftRepository implements the DraftRepository interface
type PostgresDraftRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(config *RepositoryConfig) repositories.DraftRepository {
	return &PostgresDraftRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new draft record
func (r *PostgresDraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc_path, branch_name, title, author_id, author_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Drafts)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		draft.ID,
		draft.DocPath,
		draft.BranchName,
		draft.Title,
		draft.AuthorID,
		draft.AuthorEmail,
		draft.Status,
		draft.CreatedAt,
		draft.UpdatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message: fmt.Sprintf("draft for branch '%s' already exists", draft.BranchName),
			}
		}
		return fmt.Errorf("create draft: %w", err)
	}

	return nil
}

// GetByID retrieves a draft by ID
func (r *PostgresDraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT id, doc_path, branch_name, title, author_id, author_email, status, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Drafts)

	var draft models.Draft
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&draft.ID,
		&draft.DocPath,
		&draft.BranchName,
		&draft.Title,
		&draft.AuthorID,
		&draft.AuthorEmail,
		&draft.Status,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", id)}
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	return &draft, nil
}

// List retrieves all drafts, newest first
func (r *PostgresDraftRepository) List(ctx context.Context) ([]models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT id, doc_path, branch_name, title, author_id, author_email, status, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.Drafts)

	return r.queryDrafts(ctx, query)
}

// ListByStatus retrieves drafts with the given status, newest first
func (r *PostgresDraftRepository) ListByStatus(ctx context.Context, status models.DraftStatus) ([]models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT id, doc_path, branch_name, title, author_id, author_email, status, created_at, updated_at
		FROM %s
		WHERE status = $1
		ORDER BY created_at DESC
	`, r.tables.Drafts)

	return r.queryDrafts(ctx, query, status)
}

func (r *PostgresDraftRepository) queryDrafts(ctx context.Context, query string, args ...interface{}) ([]models.Draft, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		var draft models.Draft
		err := rows.Scan(
			&draft.ID,
			&draft.DocPath,
			&draft.BranchName,
			&draft.Title,
			&draft.AuthorID,
			&draft.AuthorEmail,
			&draft.Status,
			&draft.CreatedAt,
			&draft.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}

	// Return empty slice instead of nil
	if drafts == nil {
		drafts = []models.Draft{}
	}

	return drafts, nil
}

// Update writes the draft's mutable fields. DocPath and BranchName are
// immutable and deliberately not part of the statement.
func (r *PostgresDraftRepository) Update(ctx context.Context, draft *models.Draft) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, status = $2, updated_at = $3
		WHERE id = $4
	`, r.tables.Drafts)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		draft.Title,
		draft.Status,
		draft.UpdatedAt,
		draft.ID,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", draft.ID)}
	}

	return nil
}

// Delete removes a draft record
func (r *PostgresDraftRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Drafts)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", id)}
	}

	return nil
}
