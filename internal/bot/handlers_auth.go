package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/nav"
	"github.com/loanmate/loanmate-bot/internal/session"
)

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore resets the chat to the splash screen and, after the
// splash delay, lands on Home (stored session) or Login.
func (b *Bot) handleStartCore(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	chatID := update.Message.Chat.ID

	b.mu.Lock()
	b.navStates[chatID] = nav.Initial()
	delete(b.pending, chatID)
	b.mu.Unlock()

	b.renderScreen(ctx, api, chatID)

	if b.splashDelay <= 0 {
		b.finishSplash(ctx, api, chatID)
		return
	}

	detached := context.WithoutCancel(ctx)
	time.AfterFunc(b.splashDelay, func() {
		b.finishSplash(detached, api, chatID)
	})
}

// finishSplash lifts the splash gate and restores a stored session when one
// exists, mirroring a fresh app launch.
func (b *Bot) finishSplash(ctx context.Context, api TelegramAPI, chatID int64) {
	b.dispatch(chatID, nav.AppReady{})

	sess, err := b.sessions.Current(ctx, chatID)
	switch {
	case err == nil:
		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("email_hash", logger.HashEmail(sess.Email)).
			Msg("Restored stored session")
		b.dispatch(chatID, nav.SignedIn{})
	case !errors.Is(err, session.ErrNoSession):
		logger.Log.Error().Err(err).Msg("Failed to load stored session")
	}

	b.renderScreen(ctx, api, chatID)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	help := `💳 LoanMate

/start - Restart the app
/home - Go to the home menu
/logout - Sign out
/help - Show this message

Use the buttons under each message to move around.`

	b.sendScreen(ctx, tgBot, update.Message.Chat.ID, help, nil)
}

// handleHome handles the /home command.
func (b *Bot) handleHome(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	chatID := update.Message.Chat.ID
	b.setPending(chatID, nil)
	b.dispatch(chatID, nav.Navigate{To: nav.ScreenHome})
	b.renderScreen(ctx, tgBot, chatID)
}

// handleLogout handles the /logout command.
func (b *Bot) handleLogout(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleLogoutCore(ctx, tgBot, update.Message.Chat.ID)
}

func (b *Bot) handleLogoutCore(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, nil)

	if err := b.sessions.Clear(ctx, chatID); err != nil && !errors.Is(err, session.ErrNoSession) {
		logger.Log.Error().Err(err).Msg("Failed to clear session")
	}

	b.dispatch(chatID, nav.SignedOut{})
	b.sendScreen(ctx, api, chatID, "👋 You have been signed out.", nil)
	b.renderScreen(ctx, api, chatID)
}

// beginLogin starts the email/password prompt sequence.
func (b *Bot) beginLogin(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, &pendingInput{kind: pendingLoginEmail})
	b.sendScreen(ctx, api, chatID, "📧 Enter your email address:", nil)
}

// beginGoogleLogin prompts for a pasted Google ID token.
func (b *Bot) beginGoogleLogin(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, &pendingInput{kind: pendingGoogleToken})
	b.sendScreen(ctx, api, chatID, "🔑 Paste the Google ID token from your Google sign-in:", nil)
}

// beginSignUp starts the sign-up prompt sequence.
func (b *Bot) beginSignUp(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, &pendingInput{kind: pendingSignupName})
	b.sendScreen(ctx, api, chatID, "👤 What is your full name?", nil)
}

// handleLoginInput advances the login flow with one text answer.
func (b *Bot) handleLoginInput(ctx context.Context, api TelegramAPI, chatID int64, p *pendingInput, text string) {
	text = strings.TrimSpace(text)

	switch p.kind {
	case pendingLoginEmail:
		if text == "" {
			b.sendScreen(ctx, api, chatID, "Please fill all fields", nil)
			return
		}
		p.loginEmail = text
		p.kind = pendingLoginPassword
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, "🔒 Enter your password:", nil)

	case pendingLoginPassword:
		if text == "" {
			b.sendScreen(ctx, api, chatID, "Please fill all fields", nil)
			return
		}
		b.setPending(chatID, nil)
		acct, err := b.identityClient.SignInWithPassword(ctx, p.loginEmail, text)
		if err != nil {
			b.failAuth(ctx, api, chatID, err)
			return
		}
		b.completeSignIn(ctx, api, chatID, acct)

	case pendingGoogleToken:
		if text == "" {
			b.sendScreen(ctx, api, chatID, "Please fill all fields", nil)
			return
		}
		b.setPending(chatID, nil)
		acct, err := b.identityClient.SignInWithGoogle(ctx, text)
		if err != nil {
			b.failAuth(ctx, api, chatID, err)
			return
		}
		b.completeSignIn(ctx, api, chatID, acct)
	}
}

// handleSignUpInput advances the sign-up flow with one text answer.
func (b *Bot) handleSignUpInput(ctx context.Context, api TelegramAPI, chatID int64, p *pendingInput, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.sendScreen(ctx, api, chatID, "Please fill all fields", nil)
		return
	}

	switch p.kind {
	case pendingSignupName:
		p.signupName = text
		p.kind = pendingSignupEmail
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, "📧 Enter your email address:", nil)

	case pendingSignupEmail:
		p.signupEmail = text
		p.kind = pendingSignupPassword
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, "🔒 Choose a password (at least 6 characters):", nil)

	case pendingSignupPassword:
		p.signupPassword = text
		p.kind = pendingSignupConfirm
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, "🔒 Confirm your password:", nil)

	case pendingSignupConfirm:
		if text != p.signupPassword {
			p.kind = pendingSignupPassword
			p.signupPassword = ""
			b.setPending(chatID, p)
			b.sendScreen(ctx, api, chatID, "Passwords do not match", nil)
			b.sendScreen(ctx, api, chatID, "🔒 Choose a password (at least 6 characters):", nil)
			return
		}

		b.setPending(chatID, nil)
		acct, err := b.identityClient.SignUp(ctx, p.signupEmail, p.signupPassword, p.signupName)
		if err != nil {
			b.failAuth(ctx, api, chatID, err)
			return
		}
		b.completeSignIn(ctx, api, chatID, acct)
	}
}

// completeSignIn persists the session and lands the chat on Home.
func (b *Bot) completeSignIn(ctx context.Context, api TelegramAPI, chatID int64, acct *identity.Account) {
	if _, err := b.sessions.Establish(ctx, chatID, acct); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to persist session")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("email_hash", logger.HashEmail(acct.Email)).
		Msg("User signed in")

	b.dispatch(chatID, nav.SignedIn{})
	b.renderScreen(ctx, api, chatID)
}

// failAuth reports an authentication failure and re-renders the screen.
func (b *Bot) failAuth(ctx context.Context, api TelegramAPI, chatID int64, err error) {
	logger.Log.Warn().
		Str("chat_hash", logger.HashChatID(chatID)).
		Err(err).
		Msg("Authentication failed")

	b.sendScreen(ctx, api, chatID, authErrorMessage(err), nil)
	b.renderScreen(ctx, api, chatID)
}

// authErrorMessage maps identity error codes onto user-facing text.
func authErrorMessage(err error) string {
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		return errorMessage
	}

	// Provider codes sometimes carry a trailing explanation
	// ("WEAK_PASSWORD : Password should be..."); match on the code alone.
	code, _, _ := strings.Cut(authErr.Code, " ")

	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "Invalid email or password."
	case "EMAIL_EXISTS":
		return "An account with this email already exists."
	case "INVALID_EMAIL":
		return "That does not look like a valid email address."
	case "WEAK_PASSWORD":
		return "Password should be at least 6 characters."
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "Too many attempts. Please try again later."
	case "USER_DISABLED":
		return "This account has been disabled."
	default:
		return errorMessage
	}
}
