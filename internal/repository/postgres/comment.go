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

// PostgresCommentRepository implements the CommentRepository interface
type PostgresCommentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(config *RepositoryConfig) repositories.CommentRepository {
	return &PostgresCommentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new comment
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, draft_id, author_id, author_email, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Comments)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		comment.ID,
		comment.DraftID,
		comment.AuthorID,
		comment.AuthorEmail,
		comment.Content,
		comment.CreatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", comment.DraftID)}
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// ListByDraft retrieves all comments for a draft, oldest first
func (r *PostgresCommentRepository) ListByDraft(ctx context.Context, draftID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT id, draft_id, author_id, author_email, content, created_at
		FROM %s
		WHERE draft_id = $1
		ORDER BY created_at ASC
	`, r.tables.Comments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.DraftID,
			&comment.AuthorID,
			&comment.AuthorEmail,
			&comment.Content,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	// Return empty slice instead of nil
	if comments == nil {
		comments = []models.Comment{}
	}

	return comments, nil
}

// DeleteByDraft removes all comments belonging to a draft
func (r *PostgresCommentRepository) DeleteByDraft(ctx context.Context, draftID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE draft_id = $1
	`, r.tables.Comments)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, draftID)
	if err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}

	return nil
}
