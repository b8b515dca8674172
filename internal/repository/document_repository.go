package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/loanmate/loanmate-bot/internal/database"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// ErrDocumentNotFound is returned when a document id has no record.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository persists uploaded document records. The local store
// is the system of record; the media host only holds the binaries.
type DocumentRepository struct {
	db database.PGXDB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db database.PGXDB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, user_id, document_type, file_name, file_size, file_type,
	cloudinary_url, cloudinary_public_id, status, uploaded_at`

func scanDocument(row pgx.Row) (*models.UploadedDocument, error) {
	var doc models.UploadedDocument
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.DocumentType, &doc.FileName, &doc.FileSize,
		&doc.FileType, &doc.CloudinaryURL, &doc.CloudinaryPublicID, &doc.Status,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save inserts an uploaded document record.
func (r *DocumentRepository) Save(ctx context.Context, doc *models.UploadedDocument) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO uploaded_documents (id, user_id, document_type, file_name, file_size,
			file_type, cloudinary_url, cloudinary_public_id, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, doc.ID, doc.UserID, doc.DocumentType, doc.FileName, doc.FileSize,
		doc.FileType, doc.CloudinaryURL, doc.CloudinaryPublicID, doc.Status, doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetByID retrieves a single document record.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.UploadedDocument, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM uploaded_documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListByUser enumerates a user's documents by id prefix scan
// (ids are document_<userId>_...), newest first.
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]models.UploadedDocument, error) {
	prefix := "document_" + userID + "_"
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM uploaded_documents
		WHERE id LIKE $1 || '%'
		ORDER BY uploaded_at DESC, id DESC
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListByUserAndType enumerates a user's documents of one display type,
// newest first.
func (r *DocumentRepository) ListByUserAndType(ctx context.Context, userID, documentType string) ([]models.UploadedDocument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM uploaded_documents
		WHERE user_id = $1 AND document_type = $2
		ORDER BY uploaded_at DESC, id DESC
	`, userID, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents by type: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// Delete removes a document record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM uploaded_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// UpdateStatus sets the verification status of a document.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE uploaded_documents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func collectDocuments(rows pgx.Rows) ([]models.UploadedDocument, error) {
	var docs []models.UploadedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}
