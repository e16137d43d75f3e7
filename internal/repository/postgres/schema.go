package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the draft and comment tables if they do not exist.
// Idempotent; called once at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	createDrafts := `
		CREATE TABLE IF NOT EXISTS ` + tables.Drafts + ` (
			id UUID PRIMARY KEY,
			doc_path TEXT NOT NULL,
			branch_name TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author_id TEXT,
			author_email TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDrafts); err != nil {
		return fmt.Errorf("create drafts table: %w", err)
	}

	createComments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Comments + ` (
			id UUID PRIMARY KEY,
			draft_id UUID NOT NULL REFERENCES ` + tables.Drafts + `(id) ON DELETE CASCADE,
			author_id TEXT,
			author_email TEXT,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createComments); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Drafts + `_status ON ` + tables.Drafts + `(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Comments + `_draft ON ` + tables.Comments + `(draft_id, created_at ASC)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
