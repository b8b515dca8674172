package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/loanmate/loanmate-bot/internal/database"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// ErrCategoryNotFound is returned when a category slug is unknown.
var ErrCategoryNotFound = errors.New("document category not found")

// CategoryRepository serves the seeded document category registry.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll returns every seeded category ordered by slug.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.DocumentCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slug, display_name, description, required_count, icon, color
		FROM document_categories ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.DocumentCategory
	for rows.Next() {
		var cat models.DocumentCategory
		if err := rows.Scan(&cat.Slug, &cat.DisplayName, &cat.Description,
			&cat.Required, &cat.Icon, &cat.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// GetBySlug returns one category.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error) {
	var cat models.DocumentCategory
	err := r.db.QueryRow(ctx, `
		SELECT slug, display_name, description, required_count, icon, color
		FROM document_categories WHERE slug = $1
	`, slug).Scan(&cat.Slug, &cat.DisplayName, &cat.Description,
		&cat.Required, &cat.Icon, &cat.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}
