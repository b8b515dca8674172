package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/loanmate/loanmate-bot/internal/nav"
)

const errorMessage = "Something went wrong. Please try again."

// btn is shorthand for one inline keyboard button.
func btn(text, data string) tgmodels.InlineKeyboardButton {
	return tgmodels.InlineKeyboardButton{Text: text, CallbackData: data}
}

// row wraps buttons into one keyboard row.
func row(buttons ...tgmodels.InlineKeyboardButton) []tgmodels.InlineKeyboardButton {
	return buttons
}

func keyboard(rows ...[]tgmodels.InlineKeyboardButton) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sendScreen sends a screen message, logging send failures.
func (b *Bot) sendScreen(ctx context.Context, api TelegramAPI, chatID int64, text string, markup tgmodels.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := api.SendMessage(ctx, params); err != nil {
		logger.Log.Error().
			Str("chat_hash", logger.HashChatID(chatID)).
			Err(err).
			Msg("Failed to send message")
	}
}

// renderScreen sends the message for the chat's currently visible screen.
func (b *Bot) renderScreen(ctx context.Context, api TelegramAPI, chatID int64) {
	state := b.navState(chatID)

	switch state.Visible() {
	case nav.ScreenSplash:
		b.sendScreen(ctx, api, chatID, "💳 LoanMate\n\nYour trusted partner for quick and easy loans.", nil)

	case nav.ScreenLogin:
		b.renderLogin(ctx, api, chatID)

	case nav.ScreenSignUp:
		b.renderSignUp(ctx, api, chatID)

	case nav.ScreenHome:
		b.renderHome(ctx, api, chatID)

	case nav.ScreenProfile:
		b.renderProfile(ctx, api, chatID)

	case nav.ScreenKYCStatus:
		b.renderKYCStatus(ctx, api, chatID)

	case nav.ScreenDocumentUpload:
		b.renderDocumentDashboard(ctx, api, chatID)

	case nav.ScreenDocumentPicker:
		b.renderDocumentPicker(ctx, api, chatID, state.Params.CategorySlug)

	case nav.ScreenKYCVerification:
		b.renderVerification(ctx, api, chatID)

	case nav.ScreenCreditReport:
		b.startCreditForm(ctx, api, chatID)

	case nav.ScreenCRM:
		b.renderChatIntro(ctx, api, chatID)
	}
}

func (b *Bot) renderLogin(ctx context.Context, api TelegramAPI, chatID int64) {
	text := "🔐 Welcome back\n\nSign in to continue."
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("📧 Sign in with email", cbAuthLogin)),
		row(btn("🔑 Sign in with Google", cbAuthGoogle)),
		row(btn("✨ Create an account", cbAuthToSignUp)),
	))
}

func (b *Bot) renderSignUp(ctx context.Context, api TelegramAPI, chatID int64) {
	text := "✨ Create your account\n\nA few details and you are in."
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("Start sign up", cbAuthSignUpBegin)),
		row(btn("← Back to login", cbAuthToLogin)),
	))
}

func (b *Bot) renderHome(ctx context.Context, api TelegramAPI, chatID int64) {
	name := "there"
	if sess, err := b.sessions.Current(ctx, chatID); err == nil && sess.DisplayName != "" {
		name = sess.DisplayName
	}

	text := fmt.Sprintf("🏠 Hello, %s!\n\nWhat would you like to do today?", name)
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("📋 KYC Status", cbNavKYC), btn("📄 Documents", cbNavDocuments)),
		row(btn("📊 Credit Report", cbNavCredit)),
		row(btn("💬 Loan Assistant", cbNavCRM)),
		row(btn("👤 Profile", cbNavProfile)),
	))
}

func (b *Bot) renderProfile(ctx context.Context, api TelegramAPI, chatID int64) {
	sess, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("👤 Profile\n\n")
	name := sess.DisplayName
	if name == "" {
		name = "Not set"
	}
	sb.WriteString(fmt.Sprintf("Name: %s\n", name))
	sb.WriteString(fmt.Sprintf("Email: %s\n", sess.Email))
	if sess.PhotoURL != "" {
		sb.WriteString(fmt.Sprintf("Photo: %s\n", sess.PhotoURL))
	}

	b.sendScreen(ctx, api, chatID, sb.String(), keyboard(
		row(btn("✏️ Edit name", cbProfileEditName)),
		row(btn("🖼 Change photo", cbProfileAvatar)),
		row(btn("🚪 Log out", cbProfileLogout)),
		row(btn("← Back", cbNavBack)),
	))
}

// progressFor derives category progress, honoring required counts tuned in
// the database over the compiled-in defaults.
func (b *Bot) progressFor(ctx context.Context, docs []models.UploadedDocument) []kyc.CategoryProgress {
	progress := kyc.Progress(docs)

	cats, err := b.categoryRepo.GetAll(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to load category registry, using defaults")
		return progress
	}

	required := make(map[string]int, len(cats))
	for _, c := range cats {
		required[c.Slug] = c.Required
	}
	for i := range progress {
		if r, ok := required[progress[i].Category.Slug]; ok && r > 0 {
			progress[i].Category.Required = r
			progress[i].Status = kyc.StatusFor(progress[i].Uploaded, r)
		}
	}
	return progress
}

// statusLabel maps a category completion state to its display badge.
func statusLabel(status string) string {
	switch status {
	case kyc.StatusCompleted:
		return "✅ Completed"
	case kyc.StatusPending:
		return "🕓 In progress"
	default:
		return "⬜ Not started"
	}
}

// verificationLabel maps a review state to its display badge.
func verificationLabel(status string) string {
	switch status {
	case models.DocumentStatusVerified:
		return "✅ Verified"
	case models.DocumentStatusRejected:
		return "❌ Rejected"
	default:
		return "🕓 Pending review"
	}
}

func (b *Bot) renderKYCStatus(ctx context.Context, api TelegramAPI, chatID int64) {
	sess, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	docs, err := b.documentRepo.ListByUser(ctx, sess.UID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list documents")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	progress := b.progressFor(ctx, docs)

	var sb strings.Builder
	sb.WriteString("📋 KYC Status\n\n")
	sb.WriteString(fmt.Sprintf("Overall progress: %.0f%%\n\n", kyc.OverallPercent(progress)))
	allVerified := len(progress) > 0
	for _, p := range progress {
		status := kyc.VerificationStatus(p, docs)
		if status != models.DocumentStatusVerified {
			allVerified = false
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d/%d\n%s · %s\n\n",
			p.Category.Icon, p.Category.DisplayName,
			p.Uploaded, p.Category.Required,
			statusLabel(p.Status), verificationLabel(status)))
	}
	if allVerified {
		sb.WriteString("🎉 All documents verified. Your KYC is complete.\n")
	}

	b.sendScreen(ctx, api, chatID, sb.String(), keyboard(
		row(btn("📄 Upload documents", cbNavDocuments)),
		row(btn("🎥 Record verification video", cbKYCVerify)),
		row(btn("← Back", cbNavBack)),
	))
}

func (b *Bot) renderDocumentDashboard(ctx context.Context, api TelegramAPI, chatID int64) {
	sess, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	docs, err := b.documentRepo.ListByUser(ctx, sess.UID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list documents")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	progress := b.progressFor(ctx, docs)

	var sb strings.Builder
	sb.WriteString("📄 Document Upload\n\n")
	rows := make([][]tgmodels.InlineKeyboardButton, 0, len(progress)+2)
	for _, p := range progress {
		sb.WriteString(fmt.Sprintf("%s %s (%d/%d)\n%s\n\n",
			p.Category.Icon, p.Category.DisplayName,
			p.Uploaded, p.Category.Required, p.Category.Description))
		rows = append(rows, row(btn(
			fmt.Sprintf("%s %s", p.Category.Icon, p.Category.DisplayName),
			cbDocCatPrefix+p.Category.Slug,
		)))
	}
	rows = append(rows,
		row(btn("🗂 My documents", cbDocList), btn("📤 Export CSV", cbDocExport)),
		row(btn("← Back", cbNavBack)),
	)

	b.sendScreen(ctx, api, chatID, sb.String(), keyboard(rows...))
}

func (b *Bot) renderDocumentPicker(ctx context.Context, api TelegramAPI, chatID int64, slug string) {
	cat, ok := kyc.CategoryBySlug(slug)
	if !ok {
		b.sendScreen(ctx, api, chatID, "Unknown document category.", nil)
		return
	}

	text := fmt.Sprintf("%s %s\n%s\n\nSend a photo or a PDF document (up to 5 MB).",
		cat.Icon, cat.DisplayName, cat.Description)
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("← Back", cbNavBack)),
	))
}

func (b *Bot) renderVerification(ctx context.Context, api TelegramAPI, chatID int64) {
	text := "🎥 KYC Verification\n\nRecord a short video note (up to 10 seconds) holding your ID next to your face."
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("← Back", cbNavBack)),
	))
}

func (b *Bot) renderChatIntro(ctx context.Context, api TelegramAPI, chatID int64) {
	text := "💬 Loan Assistant\n\nAsk me anything about loans, EMIs or your application. You can also send a voice message."
	b.sendScreen(ctx, api, chatID, text, keyboard(
		row(btn("← Back to home", cbNavBack)),
	))
}
