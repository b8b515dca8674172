package kyc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loanmate/loanmate-bot/internal/media"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	requests []media.UploadRequest
	result   *media.UploadResult
	err      error
}

func (s *stubUploader) Upload(_ context.Context, upReq media.UploadRequest) (*media.UploadResult, error) {
	s.requests = append(s.requests, upReq)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &media.UploadResult{
		SecureURL: "https://cdn.example.com/" + upReq.PublicID + ".jpg",
		PublicID:  upReq.PublicID,
	}, nil
}

type stubStore struct {
	saved   []*models.UploadedDocument
	byID    map[string]*models.UploadedDocument
	deleted []string
	saveErr error
	getErr  error
	delErr  error
}

func (s *stubStore) Save(_ context.Context, doc *models.UploadedDocument) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, doc)
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id string) (*models.UploadedDocument, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func testOrchestrator(uploader *stubUploader, store *stubStore) *Orchestrator {
	o := NewOrchestrator(uploader, store)
	o.now = func() time.Time { return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC) }
	o.suffix = func() string { return "abcd1234" }
	return o
}

func salarySlipInput(data []byte) UploadInput {
	cat, _ := CategoryBySlug("salary_slip")
	return UploadInput{
		Category:  cat,
		UserID:    "uid-123",
		UserEmail: "user@example.com",
		FileName:  "slip.pdf",
		MimeType:  "application/pdf",
		Data:      data,
	}
}

func TestOrchestrator_Upload(t *testing.T) {
	t.Parallel()

	uploader := &stubUploader{}
	store := &stubStore{}
	o := testOrchestrator(uploader, store)

	doc, err := o.Upload(context.Background(), salarySlipInput([]byte("pdf bytes")))
	require.NoError(t, err)
	require.NotNil(t, doc)

	millis := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC).UnixMilli()

	require.Len(t, uploader.requests, 1)
	upReq := uploader.requests[0]
	require.Equal(t, "salary_preset", upReq.Preset)
	require.Equal(t, "loanmate_docs/salary_slip", upReq.Folder)
	require.Equal(t, fmt.Sprintf("salary_slip_uid-123_%d", millis), upReq.PublicID)
	require.Equal(t,
		"user_email=user@example.com|user_id=uid-123|document_type=salary_slip|uploaded_at=2025-06-15T10:30:00Z",
		upReq.Context)
	require.Equal(t, []string{"uid-123", "salary_slip", "Salary Slip"}, upReq.Tags)

	require.Len(t, store.saved, 1)
	require.Same(t, doc, store.saved[0])
	require.Equal(t, fmt.Sprintf("document_uid-123_%d_abcd1234", millis), doc.ID)
	require.Equal(t, "uid-123", doc.UserID)
	require.Equal(t, "Salary Slip", doc.DocumentType)
	require.Equal(t, int64(len("pdf bytes")), doc.FileSize)
	require.Equal(t, models.DocumentStatusPending, doc.Status)
	require.Equal(t, upReq.PublicID, doc.CloudinaryPublicID)
	require.Contains(t, doc.CloudinaryURL, "https://cdn.example.com/")
}

func TestOrchestrator_Upload_SizeGate(t *testing.T) {
	t.Parallel()

	uploader := &stubUploader{}
	store := &stubStore{}
	o := testOrchestrator(uploader, store)

	t.Run("exactly 5MB passes", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x1}, MaxFileSize)
		_, err := o.Upload(context.Background(), salarySlipInput(data))
		require.NoError(t, err)
	})

	t.Run("one byte over is rejected before upload", func(t *testing.T) {
		before := len(uploader.requests)
		data := bytes.Repeat([]byte{0x1}, MaxFileSize+1)
		_, err := o.Upload(context.Background(), salarySlipInput(data))
		require.ErrorIs(t, err, ErrFileTooLarge)
		require.Len(t, uploader.requests, before, "media host must not be contacted")
	})
}

func TestOrchestrator_Upload_MissingFields(t *testing.T) {
	t.Parallel()

	o := testOrchestrator(&stubUploader{}, &stubStore{})

	in := salarySlipInput([]byte("x"))
	in.Category = models.DocumentCategory{}
	_, err := o.Upload(context.Background(), in)
	require.Error(t, err)

	in = salarySlipInput([]byte("x"))
	in.UserID = ""
	_, err = o.Upload(context.Background(), in)
	require.Error(t, err)
}

func TestOrchestrator_Upload_UploaderFailure(t *testing.T) {
	t.Parallel()

	uploader := &stubUploader{err: errors.New("host down")}
	store := &stubStore{}
	o := testOrchestrator(uploader, store)

	_, err := o.Upload(context.Background(), salarySlipInput([]byte("x")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to upload Salary Slip")
	require.Empty(t, store.saved, "no record is written for a failed upload")
}

func TestOrchestrator_Upload_SaveFailure(t *testing.T) {
	t.Parallel()

	uploader := &stubUploader{}
	store := &stubStore{saveErr: errors.New("db down")}
	o := testOrchestrator(uploader, store)

	_, err := o.Upload(context.Background(), salarySlipInput([]byte("x")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to save document record")
}

func TestOrchestrator_Delete(t *testing.T) {
	t.Parallel()

	store := &stubStore{
		byID: map[string]*models.UploadedDocument{
			"doc-1": {ID: "doc-1", CloudinaryPublicID: "salary_slip_uid-123_1"},
		},
	}
	o := testOrchestrator(&stubUploader{}, store)

	require.NoError(t, o.Delete(context.Background(), "doc-1"))
	require.Equal(t, []string{"doc-1"}, store.deleted)
}

func TestOrchestrator_Delete_NotFound(t *testing.T) {
	t.Parallel()

	store := &stubStore{byID: map[string]*models.UploadedDocument{}}
	o := testOrchestrator(&stubUploader{}, store)

	err := o.Delete(context.Background(), "missing")
	require.Error(t, err)
	require.Empty(t, store.deleted)
}

func TestRandomSuffix(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := randomSuffix()
		require.Len(t, s, 8)
		require.NotContains(t, s, "-")
		seen[s] = true
	}
	require.Greater(t, len(seen), 1, "suffixes must vary")
}
