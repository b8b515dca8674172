package bot

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanmate/loanmate-bot/internal/chat"
	"github.com/loanmate/loanmate-bot/internal/config"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
	"github.com/loanmate/loanmate-bot/internal/database"
	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/media"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/loanmate/loanmate-bot/internal/nav"
	"github.com/loanmate/loanmate-bot/internal/repository"
	"github.com/loanmate/loanmate-bot/internal/session"
)

// TestDB is a convenience wrapper around database.TestDB for bot tests.
//
//nolint:unused // Used in test files
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := database.TestDB(t)

	ctx := context.Background()
	if err := database.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if err := database.SeedDocumentCategories(ctx, pool); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	t.Cleanup(func() {
		database.CleanupTables(t, pool)
	})

	return pool
}

// memSessionStore is an in-memory session.Store for unit tests.
type memSessionStore struct {
	sessions map[int64]*models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[int64]*models.Session)}
}

func (s *memSessionStore) Get(_ context.Context, chatID int64) (*models.Session, error) {
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *memSessionStore) Put(_ context.Context, sess *models.Session) error {
	copied := *sess
	s.sessions[sess.ChatID] = &copied
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, chatID int64) error {
	delete(s.sessions, chatID)
	return nil
}

func (s *memSessionStore) ListActive(_ context.Context) ([]models.Session, error) {
	sessions := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

// fakeUserRepo is an in-memory userWriter.
type fakeUserRepo struct {
	Users []*models.User
	Err   error
}

func (f *fakeUserRepo) UpsertUser(_ context.Context, user *models.User) error {
	if f.Err != nil {
		return f.Err
	}
	f.Users = append(f.Users, user)
	return nil
}

// fakeCategoryRepo serves the compiled-in registry as a categoryLister.
type fakeCategoryRepo struct {
	Categories []models.DocumentCategory
	Err        error
}

func (f *fakeCategoryRepo) GetAll(_ context.Context) ([]models.DocumentCategory, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Categories != nil {
		return f.Categories, nil
	}
	return append(append([]models.DocumentCategory{}, kyc.Categories...), kyc.VerificationCategory), nil
}

// fakeDocumentRepo is an in-memory documentReader.
type fakeDocumentRepo struct {
	Docs []models.UploadedDocument
	Err  error
}

func (f *fakeDocumentRepo) ListByUser(_ context.Context, userID string) ([]models.UploadedDocument, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var docs []models.UploadedDocument
	for _, doc := range f.Docs {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*models.UploadedDocument, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for i := range f.Docs {
		if f.Docs[i].ID == id {
			return &f.Docs[i], nil
		}
	}
	return nil, repository.ErrDocumentNotFound
}

// fakeIdentity is a scriptable identityAPI.
type fakeIdentity struct {
	Account *identity.Account
	Err     error

	SignUpCalls        int
	SignInCalls        int
	GoogleCalls        int
	UpdateProfileCalls int
	RefreshCalls       int
	LastDisplayName    string
	LastPhotoURL       string
}

func (f *fakeIdentity) SignUp(_ context.Context, _, _, _ string) (*identity.Account, error) {
	f.SignUpCalls++
	return f.Account, f.Err
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, _, _ string) (*identity.Account, error) {
	f.SignInCalls++
	return f.Account, f.Err
}

func (f *fakeIdentity) SignInWithGoogle(_ context.Context, _ string) (*identity.Account, error) {
	f.GoogleCalls++
	return f.Account, f.Err
}

func (f *fakeIdentity) UpdateProfile(_ context.Context, _, displayName, photoURL string) (*identity.Account, error) {
	f.UpdateProfileCalls++
	f.LastDisplayName = displayName
	f.LastPhotoURL = photoURL
	return f.Account, f.Err
}

func (f *fakeIdentity) RefreshToken(_ context.Context, _ string) (*identity.Account, error) {
	f.RefreshCalls++
	return f.Account, f.Err
}

// fakeCredit is a scriptable creditGenerator.
type fakeCredit struct {
	Response *creditreport.Response
	Err      error
	Requests []creditreport.Request
}

func (f *fakeCredit) Generate(_ context.Context, reportReq creditreport.Request) (*creditreport.Response, error) {
	f.Requests = append(f.Requests, reportReq)
	return f.Response, f.Err
}

// fakeChat is a scriptable chatSender.
type fakeChat struct {
	Reply      string
	NewHistory chat.History
	Err        error
	Messages   []string
	Histories  []chat.History
}

func (f *fakeChat) Send(_ context.Context, message string, history chat.History) (string, chat.History, error) {
	f.Messages = append(f.Messages, message)
	f.Histories = append(f.Histories, history)
	if f.Err != nil {
		return "", nil, f.Err
	}
	return f.Reply, f.NewHistory, nil
}

// fakeUploader is a scriptable documentUploader.
type fakeUploader struct {
	Err        error
	DeleteErr  error
	Uploads    []kyc.UploadInput
	Deleted    []string
	nextDocSeq int
}

func (f *fakeUploader) Upload(_ context.Context, in kyc.UploadInput) (*models.UploadedDocument, error) {
	f.Uploads = append(f.Uploads, in)
	if f.Err != nil {
		return nil, f.Err
	}
	f.nextDocSeq++
	return &models.UploadedDocument{
		ID:           fmt.Sprintf("document_%s_%d_testsuffix", in.UserID, f.nextDocSeq),
		UserID:       in.UserID,
		DocumentType: in.Category.DisplayName,
		FileName:     in.FileName,
		FileSize:     int64(len(in.Data)),
		FileType:     in.MimeType,
		Status:       models.DocumentStatusPending,
		UploadedAt:   time.Now(),
	}, nil
}

func (f *fakeUploader) Delete(_ context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

// fakeMedia is a scriptable mediaUploader.
type fakeMedia struct {
	Result  *media.UploadResult
	Err     error
	Uploads []media.UploadRequest
}

func (f *fakeMedia) Upload(_ context.Context, upReq media.UploadRequest) (*media.UploadResult, error) {
	f.Uploads = append(f.Uploads, upReq)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result, nil
	}
	return &media.UploadResult{SecureURL: "https://cdn.example.com/asset.jpg", PublicID: "asset"}, nil
}

// fakeTranscriber is a scriptable voiceTranscriber.
type fakeTranscriber struct {
	Transcript string
	Err        error
	Calls      int
}

func (f *fakeTranscriber) TranscribeVoice(_ context.Context, _ []byte, _ string) (string, error) {
	f.Calls++
	return f.Transcript, f.Err
}

// testDeps bundles the fakes wired into a test bot.
//
//nolint:unused // Used in test files
type testDeps struct {
	store       *memSessionStore
	identity    *fakeIdentity
	credit      *fakeCredit
	chat        *fakeChat
	uploader    *fakeUploader
	media       *fakeMedia
	transcriber *fakeTranscriber
	users       *fakeUserRepo
	categories  *fakeCategoryRepo
	documents   *fakeDocumentRepo
}

// setupTestBot creates a Bot wired to in-memory fakes, no database.
//
//nolint:unused // Used in test files
func setupTestBot(t *testing.T) (*Bot, *testDeps) {
	t.Helper()

	deps := &testDeps{
		store:       newMemSessionStore(),
		identity:    &fakeIdentity{},
		credit:      &fakeCredit{},
		chat:        &fakeChat{},
		uploader:    &fakeUploader{},
		media:       &fakeMedia{},
		transcriber: &fakeTranscriber{},
		users:       &fakeUserRepo{},
		categories:  &fakeCategoryRepo{},
		documents:   &fakeDocumentRepo{},
	}

	b := &Bot{
		cfg: &config.Config{
			TelegramBotToken: "test-token",
			ReminderHour:     20,
			ReminderTimezone: "Asia/Kolkata",
		},
		userRepo:       deps.users,
		categoryRepo:   deps.categories,
		documentRepo:   deps.documents,
		sessionRepo:    deps.store,
		sessions:       session.NewManager(deps.store, deps.identity),
		identityClient: deps.identity,
		creditClient:   deps.credit,
		chatClient:     deps.chat,
		uploader:       deps.uploader,
		mediaClient:    deps.media,
		transcriber:    deps.transcriber,
		fileHTTP:       http.DefaultClient,
		navStates:      make(map[int64]nav.State),
		pending:        make(map[int64]*pendingInput),
		histories:      make(map[int64]chat.History),
		splashDelay:    0,
		revealDelay:    0,
	}

	return b, deps
}

// signIn establishes an authenticated, ready session for a chat.
//
//nolint:unused // Used in test files
func signIn(t *testing.T, b *Bot, chatID int64) {
	t.Helper()

	_, err := b.sessions.Establish(context.Background(), chatID, &identity.Account{
		UID:          "uid-123",
		Email:        "user@example.com",
		DisplayName:  "Test User",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to establish session: %v", err)
	}

	b.dispatch(chatID, nav.AppReady{})
	b.dispatch(chatID, nav.SignedIn{})
}

// setDBRepos points the bot's repositories at a test database pool.
//
//nolint:unused // Used in test files
func setDBRepos(b *Bot, pool *pgxpool.Pool) {
	b.userRepo = repository.NewUserRepository(pool)
	b.categoryRepo = repository.NewCategoryRepository(pool)
	b.documentRepo = repository.NewDocumentRepository(pool)
	b.sessionRepo = repository.NewSessionRepository(pool)
}
