package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/loanmate/loanmate-bot/internal/database"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/loanmate/loanmate-bot/internal/repository"
	"github.com/stretchr/testify/require"
)

func testUser(id int64) *models.User {
	return &models.User{
		ID:        id,
		Username:  "priya_s",
		FirstName: "Priya",
		LastName:  "Sharma",
	}
}

func testDocument(id, userID string, uploadedAt time.Time) *models.UploadedDocument {
	return &models.UploadedDocument{
		ID:                 id,
		UserID:             userID,
		DocumentType:       "Salary Slip",
		FileName:           "slip.pdf",
		FileSize:           2048,
		FileType:           "application/pdf",
		CloudinaryURL:      "https://res.cloudinary.com/demo/slip.pdf",
		CloudinaryPublicID: "loanmate_docs/salary_slip/slip",
		Status:             models.DocumentStatusPending,
		UploadedAt:         uploadedAt,
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewUserRepository(tx)
	ctx := context.Background()

	require.NoError(t, repo.UpsertUser(ctx, testUser(1001)))

	got, err := repo.GetUserByID(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, "priya_s", got.Username)
	require.Equal(t, "Priya", got.FirstName)
	require.Equal(t, "Sharma", got.LastName)

	// A second upsert replaces the mutable fields.
	updated := testUser(1001)
	updated.Username = "priya_renamed"
	require.NoError(t, repo.UpsertUser(ctx, updated))

	got, err = repo.GetUserByID(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, "priya_renamed", got.Username)
}

func TestUserRepository_GetMissing(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewUserRepository(tx)

	_, err := repo.GetUserByID(context.Background(), 999999)
	require.Error(t, err)
}

func TestCategoryRepository_GetAll(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewCategoryRepository(tx)

	cats, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 5)

	slugs := make([]string, 0, len(cats))
	for _, c := range cats {
		slugs = append(slugs, c.Slug)
	}
	require.Equal(t, []string{
		"address_proof", "bank_statement", "id_proof", "kyc_verification", "salary_slip",
	}, slugs, "ordered by slug")
}

func TestCategoryRepository_GetBySlug(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewCategoryRepository(tx)
	ctx := context.Background()

	cat, err := repo.GetBySlug(ctx, "salary_slip")
	require.NoError(t, err)
	require.Equal(t, "Salary Slip", cat.DisplayName)
	require.Equal(t, 3, cat.Required)

	_, err = repo.GetBySlug(ctx, "voter_id")
	require.ErrorIs(t, err, repository.ErrCategoryNotFound)
}

func TestDocumentRepository_SaveAndGet(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)
	ctx := context.Background()

	doc := testDocument("document_uid-1_100_aaaa", "uid-1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.UserID, got.UserID)
	require.Equal(t, doc.DocumentType, got.DocumentType)
	require.Equal(t, doc.FileName, got.FileName)
	require.Equal(t, doc.FileSize, got.FileSize)
	require.Equal(t, doc.CloudinaryURL, got.CloudinaryURL)
	require.Equal(t, doc.CloudinaryPublicID, got.CloudinaryPublicID)
	require.Equal(t, models.DocumentStatusPending, got.Status)
	require.WithinDuration(t, doc.UploadedAt, got.UploadedAt, time.Second)
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)

	_, err := repo.GetByID(context.Background(), "document_uid-1_missing")
	require.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestDocumentRepository_ListByUser(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := testDocument("document_uid-2_100_aaaa", "uid-2", base.Add(-time.Hour))
	newer := testDocument("document_uid-2_200_bbbb", "uid-2", base)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	// uid-2x shares the uid-2 prefix but is a different user; the trailing
	// underscore in the scan must keep it out.
	other := testDocument("document_uid-2x_100_cccc", "uid-2x", base)
	require.NoError(t, repo.Save(ctx, other))

	docs, err := repo.ListByUser(ctx, "uid-2")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, newer.ID, docs[0].ID, "newest first")
	require.Equal(t, older.ID, docs[1].ID)
}

func TestDocumentRepository_ListByUserAndType(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)
	ctx := context.Background()

	now := time.Now().UTC()
	slip := testDocument("document_uid-3_100_aaaa", "uid-3", now)
	idProof := testDocument("document_uid-3_200_bbbb", "uid-3", now)
	idProof.DocumentType = "ID Proof"
	require.NoError(t, repo.Save(ctx, slip))
	require.NoError(t, repo.Save(ctx, idProof))

	docs, err := repo.ListByUserAndType(ctx, "uid-3", "Salary Slip")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, slip.ID, docs[0].ID)
}

func TestDocumentRepository_Delete(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)
	ctx := context.Background()

	doc := testDocument("document_uid-4_100_aaaa", "uid-4", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, doc))

	require.NoError(t, repo.Delete(ctx, doc.ID))

	_, err := repo.GetByID(ctx, doc.ID)
	require.ErrorIs(t, err, repository.ErrDocumentNotFound)

	require.ErrorIs(t, repo.Delete(ctx, doc.ID), repository.ErrDocumentNotFound)
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewDocumentRepository(tx)
	ctx := context.Background()

	doc := testDocument("document_uid-5_100_aaaa", "uid-5", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, doc))

	require.NoError(t, repo.UpdateStatus(ctx, doc.ID, models.DocumentStatusVerified))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusVerified, got.Status)

	require.ErrorIs(t,
		repo.UpdateStatus(ctx, "document_uid-5_missing", models.DocumentStatusVerified),
		repository.ErrDocumentNotFound)
}

func testSession(chatID int64) *models.Session {
	return &models.Session{
		ChatID:       chatID,
		UID:          "uid-123",
		Email:        "user@example.com",
		DisplayName:  "Priya",
		PhotoURL:     "",
		IDToken:      "id-token-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().UTC().Add(time.Hour).Truncate(time.Second),
	}
}

func TestSessionRepository_PutAndGet(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	users := repository.NewUserRepository(tx)
	repo := repository.NewSessionRepository(tx)
	ctx := context.Background()

	require.NoError(t, users.UpsertUser(ctx, testUser(2001)))
	sess := testSession(2001)
	require.NoError(t, repo.Put(ctx, sess))

	got, err := repo.Get(ctx, 2001)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "uid-123", got.UID)
	require.Equal(t, "user@example.com", got.Email)
	require.Equal(t, "id-token-1", got.IDToken)
	require.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	repo := repository.NewSessionRepository(tx)

	got, err := repo.Get(context.Background(), 999999)
	require.NoError(t, err)
	require.Nil(t, got, "missing session is not an error")
}

func TestSessionRepository_PutReplacesTokens(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	users := repository.NewUserRepository(tx)
	repo := repository.NewSessionRepository(tx)
	ctx := context.Background()

	require.NoError(t, users.UpsertUser(ctx, testUser(2002)))
	require.NoError(t, repo.Put(ctx, testSession(2002)))

	rotated := testSession(2002)
	rotated.IDToken = "id-token-2"
	rotated.RefreshToken = "refresh-2"
	require.NoError(t, repo.Put(ctx, rotated))

	got, err := repo.Get(ctx, 2002)
	require.NoError(t, err)
	require.Equal(t, "id-token-2", got.IDToken)
	require.Equal(t, "refresh-2", got.RefreshToken)
}

func TestSessionRepository_Delete(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	users := repository.NewUserRepository(tx)
	repo := repository.NewSessionRepository(tx)
	ctx := context.Background()

	require.NoError(t, users.UpsertUser(ctx, testUser(2003)))
	require.NoError(t, repo.Put(ctx, testSession(2003)))

	require.NoError(t, repo.Delete(ctx, 2003))

	got, err := repo.Get(ctx, 2003)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Delete(ctx, 2003), "deleting an absent session is fine")
}

func TestSessionRepository_ListActive(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	users := repository.NewUserRepository(tx)
	repo := repository.NewSessionRepository(tx)
	ctx := context.Background()

	for _, chatID := range []int64{2020, 2010} {
		require.NoError(t, users.UpsertUser(ctx, testUser(chatID)))
		require.NoError(t, repo.Put(ctx, testSession(chatID)))
	}

	sessions, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, int64(2010), sessions[0].ChatID, "ordered by chat id")
	require.Equal(t, int64(2020), sessions[1].ChatID)
}
