package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			chat_id BIGINT PRIMARY KEY REFERENCES users(id),
			uid TEXT NOT NULL,
			email TEXT NOT NULL,
			display_name TEXT,
			photo_url TEXT,
			id_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS document_categories (
			slug TEXT PRIMARY KEY,
			display_name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			required_count INTEGER NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS uploaded_documents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			file_type TEXT NOT NULL,
			cloudinary_url TEXT NOT NULL,
			cloudinary_public_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_documents_user_id ON uploaded_documents(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON uploaded_documents(uploaded_at)`,
		// Document ids are enumerable by prefix (document_<userId>_...),
		// which needs a pattern-ops index to stay a range scan.
		`CREATE INDEX IF NOT EXISTS idx_documents_id_prefix ON uploaded_documents(id text_pattern_ops)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_uid ON sessions(uid)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedDocumentCategories inserts the KYC document categories with their
// required counts, updating requirements in place when they change.
func SeedDocumentCategories(ctx context.Context, pool *pgxpool.Pool) error {
	categories := make([]models.DocumentCategory, 0, len(kyc.Categories)+1)
	categories = append(categories, kyc.Categories...)
	categories = append(categories, kyc.VerificationCategory)

	for _, cat := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO document_categories (slug, display_name, description, required_count, icon, color)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				description = EXCLUDED.description,
				required_count = EXCLUDED.required_count,
				icon = EXCLUDED.icon,
				color = EXCLUDED.color
		`, cat.Slug, cat.DisplayName, cat.Description, cat.Required, cat.Icon, cat.Color)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.Slug, err)
		}
	}

	return nil
}
