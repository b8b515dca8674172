// Package bot provides the Telegram frontend: per-chat screens rendered as
// messages with inline keyboards, driven by the navigation state machine.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loanmate/loanmate-bot/internal/chat"
	"github.com/loanmate/loanmate-bot/internal/config"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
	"github.com/loanmate/loanmate-bot/internal/gemini"
	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/media"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/loanmate/loanmate-bot/internal/nav"
	"github.com/loanmate/loanmate-bot/internal/repository"
	"github.com/loanmate/loanmate-bot/internal/session"
	"github.com/loanmate/loanmate-bot/internal/telemetry"
)

// identityAPI is the slice of the identity client the handlers use.
type identityAPI interface {
	SignUp(ctx context.Context, email, password, displayName string) (*identity.Account, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Account, error)
	SignInWithGoogle(ctx context.Context, googleIDToken string) (*identity.Account, error)
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*identity.Account, error)
}

// creditGenerator produces a credit report from a validated request.
type creditGenerator interface {
	Generate(ctx context.Context, reportReq creditreport.Request) (*creditreport.Response, error)
}

// chatSender relays an assistant message with the held history.
type chatSender interface {
	Send(ctx context.Context, message string, history chat.History) (string, chat.History, error)
}

// documentUploader runs the KYC upload pipeline.
type documentUploader interface {
	Upload(ctx context.Context, in kyc.UploadInput) (*models.UploadedDocument, error)
	Delete(ctx context.Context, id string) error
}

// voiceTranscriber converts a voice note into text.
type voiceTranscriber interface {
	TranscribeVoice(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// mediaUploader stores a raw binary on the media host (avatar uploads
// bypass the KYC pipeline).
type mediaUploader interface {
	Upload(ctx context.Context, upReq media.UploadRequest) (*media.UploadResult, error)
}

// userWriter keeps Telegram user rows fresh.
type userWriter interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// categoryLister serves the seeded category registry.
type categoryLister interface {
	GetAll(ctx context.Context) ([]models.DocumentCategory, error)
}

// documentReader serves stored document records.
type documentReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.UploadedDocument, error)
	GetByID(ctx context.Context, id string) (*models.UploadedDocument, error)
}

// sessionLister enumerates stored sessions for the reminder loop.
type sessionLister interface {
	ListActive(ctx context.Context) ([]models.Session, error)
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot *bot.Bot
	cfg *config.Config

	userRepo     userWriter
	categoryRepo categoryLister
	documentRepo documentReader
	sessionRepo  sessionLister

	sessions       *session.Manager
	identityClient identityAPI
	creditClient   creditGenerator
	chatClient     chatSender
	uploader       documentUploader
	mediaClient    mediaUploader
	transcriber    voiceTranscriber

	// messageSender is the API used outside update handlers (reminders).
	messageSender TelegramAPI
	// fileHTTP fetches Telegram file downloads.
	fileHTTP *http.Client

	mu        sync.Mutex
	navStates map[int64]nav.State
	pending   map[int64]*pendingInput
	histories map[int64]chat.History

	splashDelay time.Duration
	// revealDelay is the pause between count-up frames of the score
	// reveal. Tests set it to zero.
	revealDelay time.Duration
}

// New creates a new Bot instance.
func New(cfg *config.Config, pool *pgxpool.Pool) (*Bot, error) {
	httpClient := telemetry.NewHTTPClient(cfg.HTTPTimeout)

	identityClient := identity.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPIKey, httpClient)
	documentRepo := repository.NewDocumentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	mediaClient := media.NewClient(media.Config{
		CloudName: cfg.CloudinaryCloudName,
		UploadURL: cfg.CloudinaryUploadURL,
	}, telemetry.NewHTTPClient(60*time.Second))

	b := &Bot{
		cfg:            cfg,
		userRepo:       repository.NewUserRepository(pool),
		categoryRepo:   repository.NewCategoryRepository(pool),
		documentRepo:   documentRepo,
		sessionRepo:    sessionRepo,
		sessions:       session.NewManager(sessionRepo, identityClient),
		identityClient: identityClient,
		creditClient:   creditreport.NewClient(cfg.CreditAPIURL, httpClient),
		chatClient:     chat.NewClient(cfg.ChatAPIURL, httpClient),
		uploader:       kyc.NewOrchestrator(mediaClient, documentRepo),
		mediaClient:    mediaClient,
		fileHTTP:       httpClient,
		navStates:      make(map[int64]nav.State),
		pending:        make(map[int64]*pendingInput),
		histories:      make(map[int64]chat.History),
		splashDelay:    cfg.SplashDelay,
		revealDelay:    creditreport.RevealInterval,
	}

	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to create Gemini client, voice messages disabled")
		} else {
			b.transcriber = geminiClient
		}
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.loggingMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates and runs the KYC reminder loop.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	go b.startKYCReminderLoop(ctx)
	b.bot.Start(ctx)
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, b.handleLogout)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/home", bot.MatchTypePrefix, b.handleHome)
}

// loggingMiddleware records the user's action and keeps the user row fresh.
func (b *Bot) loggingMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		logUserAction(userID, extractUsername(update), update)

		if err := b.ensureUserRegistered(ctx, update); err != nil {
			logger.Log.Error().
				Str("user_hash", logger.HashUserID(userID)).
				Err(err).
				Msg("Failed to register user")
		}

		next(ctx, tgBot, update)
	}
}

// logUserAction logs the user's input/action.
func logUserAction(userID int64, username string, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Int64("user_id", userID).
			Str("username", username).
			Int64("chat_id", msg.Chat.ID)

		if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		if len(msg.Photo) > 0 {
			event = event.Str("type", "photo")
		}
		if msg.Document != nil {
			event = event.Str("type", "document").Str("filename", msg.Document.FileName)
		}
		if msg.Voice != nil {
			event = event.Str("type", "voice")
		}
		if msg.VideoNote != nil {
			event = event.Str("type", "video_note")
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Int64("user_id", userID).
			Str("username", username).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var user *models.User

	if update.Message != nil && update.Message.From != nil {
		from := update.Message.From
		user = &models.User{
			ID:        from.ID,
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
		}
	} else if update.CallbackQuery != nil {
		from := update.CallbackQuery.From
		user = &models.User{
			ID:        from.ID,
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
		}
	}

	if user == nil {
		return nil
	}

	if err := b.userRepo.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler routes everything that is not a registered command:
// callback queries, pending text input, and screen-bound attachments.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackCore(ctx, tgBot, update)
		return
	}
	if update.Message == nil {
		return
	}

	b.routeMessageCore(ctx, tgBot, update)
}

// navState returns the chat's navigation state.
func (b *Bot) navState(chatID int64) nav.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.navStates[chatID]
	if !ok {
		state = nav.Initial()
		b.navStates[chatID] = state
	}
	return state
}

// dispatch runs one navigation event through the reducer and stores the
// resulting state.
func (b *Bot) dispatch(chatID int64, ev nav.Event) nav.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.navStates[chatID]
	if !ok {
		state = nav.Initial()
	}
	state = nav.Reduce(state, ev)
	b.navStates[chatID] = state
	return state
}

func (b *Bot) setPending(chatID int64, p *pendingInput) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		delete(b.pending, chatID)
		return
	}
	b.pending[chatID] = p
}

func (b *Bot) pendingFor(chatID int64) *pendingInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[chatID]
}

func (b *Bot) history(chatID int64) chat.History {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.histories[chatID]
}

func (b *Bot) setHistory(chatID int64, h chat.History) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.histories[chatID] = h
}
