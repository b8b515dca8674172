package kyc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/media"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// MaxFileSize is the upload size limit. Exactly 5 MB is accepted; one byte
// more is rejected before the media host is contacted.
const MaxFileSize = 5 * 1024 * 1024

// ErrFileTooLarge is returned by the pre-upload size gate.
var ErrFileTooLarge = errors.New("file size must be less than 5MB")

// Uploader stores a binary on the media host.
type Uploader interface {
	Upload(ctx context.Context, upReq media.UploadRequest) (*media.UploadResult, error)
}

// DocumentStore persists and serves local document records.
type DocumentStore interface {
	Save(ctx context.Context, doc *models.UploadedDocument) error
	GetByID(ctx context.Context, id string) (*models.UploadedDocument, error)
	Delete(ctx context.Context, id string) error
}

// UploadInput is one upload attempt from a single source (camera photo,
// gallery image, or PDF document).
type UploadInput struct {
	Category  models.DocumentCategory
	UserID    string
	UserEmail string
	FileName  string
	MimeType  string
	Data      []byte
}

// Orchestrator runs the upload pipeline: size gate, media-host upload,
// then local record persistence. The record is written only after the
// upload succeeded, so the store never references a missing asset.
type Orchestrator struct {
	uploader Uploader
	store    DocumentStore
	now      func() time.Time
	suffix   func() string
}

// NewOrchestrator creates an upload orchestrator.
func NewOrchestrator(uploader Uploader, store DocumentStore) *Orchestrator {
	return &Orchestrator{
		uploader: uploader,
		store:    store,
		now:      time.Now,
		suffix:   randomSuffix,
	}
}

// randomSuffix is the collision guard appended to document ids; two uploads
// in the same millisecond still get distinct ids.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Upload runs one document through the pipeline and returns the persisted
// record.
func (o *Orchestrator) Upload(ctx context.Context, in UploadInput) (*models.UploadedDocument, error) {
	if len(in.Data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if in.Category.Slug == "" {
		return nil, errors.New("document category is required")
	}
	if in.UserID == "" {
		return nil, errors.New("user id is required")
	}

	now := o.now()
	millis := now.UnixMilli()
	publicID := fmt.Sprintf("%s_%s_%d", in.Category.Slug, in.UserID, millis)

	metadata := fmt.Sprintf("user_email=%s|user_id=%s|document_type=%s|uploaded_at=%s",
		in.UserEmail, in.UserID, in.Category.Slug, now.UTC().Format(time.RFC3339))

	result, err := o.uploader.Upload(ctx, media.UploadRequest{
		Data:     in.Data,
		FileName: in.FileName,
		MimeType: in.MimeType,
		Preset:   media.PresetFor(in.Category.Slug),
		Folder:   media.FolderFor(in.Category.Slug),
		PublicID: publicID,
		Context:  metadata,
		Tags:     []string{in.UserID, in.Category.Slug, in.Category.DisplayName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", in.Category.DisplayName, err)
	}

	doc := &models.UploadedDocument{
		ID:                 fmt.Sprintf("document_%s_%d_%s", in.UserID, millis, o.suffix()),
		UserID:             in.UserID,
		DocumentType:       in.Category.DisplayName,
		FileName:           in.FileName,
		FileSize:           int64(len(in.Data)),
		FileType:           in.MimeType,
		CloudinaryURL:      result.SecureURL,
		CloudinaryPublicID: result.PublicID,
		Status:             models.DocumentStatusPending,
		UploadedAt:         now,
	}

	if err := o.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

// Delete removes the local record only. The media-host asset is orphaned
// by policy; its public id is logged so a cleanup job could reconcile it.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	doc, err := o.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document for deletion: %w", err)
	}

	if err := o.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	logger.Log.Info().
		Str("public_id", doc.CloudinaryPublicID).
		Str("document_id", id).
		Msg("Deleted local document record, media asset orphaned")

	return nil
}
