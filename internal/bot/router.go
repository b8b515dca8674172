package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/nav"
)

// callbackChatID extracts the chat the callback's keyboard lives in.
func callbackChatID(cq *tgmodels.CallbackQuery) int64 {
	if cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID
	}
	return cq.From.ID
}

// navTargets maps plain navigation callbacks onto their screens.
var navTargets = map[string]nav.Screen{
	cbNavHome:      nav.ScreenHome,
	cbNavProfile:   nav.ScreenProfile,
	cbNavKYC:       nav.ScreenKYCStatus,
	cbNavDocuments: nav.ScreenDocumentUpload,
	cbNavCredit:    nav.ScreenCreditReport,
	cbNavCRM:       nav.ScreenCRM,
}

// handleCallbackCore dispatches an inline keyboard press.
func (b *Bot) handleCallbackCore(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	cq := update.CallbackQuery
	chatID := callbackChatID(cq)

	if _, err := api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	}); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to answer callback query")
	}

	data := cq.Data

	if to, ok := navTargets[data]; ok {
		b.setPending(chatID, nil)
		b.dispatch(chatID, nav.Navigate{To: to})
		b.renderScreen(ctx, api, chatID)
		return
	}

	switch {
	case data == cbNavBack:
		b.setPending(chatID, nil)
		b.dispatch(chatID, nav.GoBack{})
		b.renderScreen(ctx, api, chatID)

	case data == cbAuthLogin:
		b.beginLogin(ctx, api, chatID)
	case data == cbAuthGoogle:
		b.beginGoogleLogin(ctx, api, chatID)
	case data == cbAuthToSignUp:
		b.dispatch(chatID, nav.Navigate{To: nav.ScreenSignUp})
		b.renderScreen(ctx, api, chatID)
	case data == cbAuthSignUpBegin:
		b.beginSignUp(ctx, api, chatID)
	case data == cbAuthToLogin:
		b.setPending(chatID, nil)
		b.dispatch(chatID, nav.Navigate{To: nav.ScreenLogin})
		b.renderScreen(ctx, api, chatID)

	case data == cbProfileEditName:
		b.beginNameEdit(ctx, api, chatID)
	case data == cbProfileAvatar:
		b.beginAvatarUpload(ctx, api, chatID)
	case data == cbProfileLogout:
		b.handleLogoutCore(ctx, api, chatID)

	case data == cbCreditDefaultYes || data == cbCreditDefaultNo:
		b.handleCreditDefaultChoice(ctx, api, chatID, data == cbCreditDefaultYes)
	case data == cbCreditEmployed || data == cbCreditSelfEmp:
		b.handleCreditEmploymentChoice(ctx, api, chatID, data == cbCreditSelfEmp)
	case data == cbCreditRecalc:
		b.startCreditForm(ctx, api, chatID)

	case data == cbDocList:
		b.handleDocumentList(ctx, api, chatID)
	case data == cbDocExport:
		b.handleDocumentExport(ctx, api, chatID)
	case data == cbKYCVerify:
		b.dispatch(chatID, nav.Navigate{To: nav.ScreenKYCVerification})
		b.renderScreen(ctx, api, chatID)
	case strings.HasPrefix(data, cbDocCatPrefix):
		slug := strings.TrimPrefix(data, cbDocCatPrefix)
		b.dispatch(chatID, nav.Navigate{To: nav.ScreenDocumentPicker, Params: nav.Params{CategorySlug: slug}})
		b.renderScreen(ctx, api, chatID)
	case strings.HasPrefix(data, cbDocDelPrefix):
		b.handleDocumentDelete(ctx, api, chatID, strings.TrimPrefix(data, cbDocDelPrefix))

	default:
		logger.Log.Warn().Str("data", data).Msg("Unknown callback data")
	}
}

// routeMessageCore routes a non-command message by attachment type, then
// pending input, then the visible screen.
func (b *Bot) routeMessageCore(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	visible := b.navState(chatID).Visible()

	if msg.VideoNote != nil {
		if visible == nav.ScreenKYCVerification {
			b.handleVerificationVideo(ctx, api, update)
		} else {
			b.sendScreen(ctx, api, chatID, "Open KYC verification first to submit your video.", nil)
		}
		return
	}

	if len(msg.Photo) > 0 || msg.Document != nil {
		if p := b.pendingFor(chatID); p != nil && p.kind == pendingProfileAvatar {
			b.handleAvatarPhoto(ctx, api, update)
			return
		}
		if visible == nav.ScreenDocumentPicker {
			b.handleDocumentAttachment(ctx, api, update)
			return
		}
		b.sendScreen(ctx, api, chatID, "Pick a document category first, then send the file.", nil)
		return
	}

	if msg.Voice != nil {
		if visible == nav.ScreenCRM {
			b.handleChatVoice(ctx, api, update)
		} else {
			b.sendScreen(ctx, api, chatID, "Voice messages work in the Loan Assistant. Open it from the home menu.", nil)
		}
		return
	}

	if msg.Text == "" {
		return
	}

	if p := b.pendingFor(chatID); p != nil {
		b.handlePendingText(ctx, api, chatID, p, msg.Text)
		return
	}

	if visible == nav.ScreenCRM {
		b.handleChatText(ctx, api, chatID, msg.Text)
		return
	}

	b.renderScreen(ctx, api, chatID)
}

// handlePendingText feeds one text answer into the active flow.
func (b *Bot) handlePendingText(ctx context.Context, api TelegramAPI, chatID int64, p *pendingInput, text string) {
	switch p.kind {
	case pendingLoginEmail, pendingLoginPassword, pendingGoogleToken:
		b.handleLoginInput(ctx, api, chatID, p, text)
	case pendingSignupName, pendingSignupEmail, pendingSignupPassword, pendingSignupConfirm:
		b.handleSignUpInput(ctx, api, chatID, p, text)
	case pendingCreditField:
		b.handleCreditFieldInput(ctx, api, chatID, p, text)
	case pendingProfileName:
		b.handleNameEditInput(ctx, api, chatID, text)
	case pendingProfileAvatar:
		b.sendScreen(ctx, api, chatID, "Send a photo to use as your profile picture, or press Back.", nil)
	default:
		b.setPending(chatID, nil)
		b.renderScreen(ctx, api, chatID)
	}
}
