package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/nav"
	"github.com/loanmate/loanmate-bot/internal/repository"
)

const fileTooLargeMessage = "File size must be less than 5MB"

// handleDocumentAttachment uploads a photo or PDF into the category the
// chat has open on the picker screen.
func (b *Bot) handleDocumentAttachment(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	slug := b.navState(chatID).Params.CategorySlug
	cat, ok := kyc.CategoryBySlug(slug)
	if !ok {
		b.sendScreen(ctx, api, chatID, "Pick a document category first, then send the file.", nil)
		return
	}

	uid, email, ok := b.requireSession(ctx, api, chatID)
	if !ok {
		return
	}

	// Reject on the size Telegram declares, before downloading anything.
	if declaredAttachmentSize(msg) > kyc.MaxFileSize {
		b.sendScreen(ctx, api, chatID, fileTooLargeMessage, nil)
		return
	}

	fileID, fileName, mimeType := attachmentInfo(msg)
	if fileID == "" {
		return
	}

	data, err := b.downloadFile(ctx, api, fileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download document")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	b.sendScreen(ctx, api, chatID, fmt.Sprintf("⏳ Uploading %s...", cat.DisplayName), nil)

	doc, err := b.uploader.Upload(ctx, kyc.UploadInput{
		Category:  cat,
		UserID:    uid,
		UserEmail: email,
		FileName:  fileName,
		MimeType:  mimeType,
		Data:      data,
	})
	if err != nil {
		if errors.Is(err, kyc.ErrFileTooLarge) {
			b.sendScreen(ctx, api, chatID, fileTooLargeMessage, nil)
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to upload document")
		b.sendScreen(ctx, api, chatID, "Upload failed. Please try again.", nil)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashChatID(chatID)).
		Str("document_id", doc.ID).
		Str("category", cat.Slug).
		Msg("Document uploaded")

	b.sendScreen(ctx, api, chatID,
		fmt.Sprintf("✅ %s uploaded (%s).", cat.DisplayName, doc.FileName), nil)

	b.dispatch(chatID, nav.Navigate{To: nav.ScreenDocumentUpload})
	b.renderScreen(ctx, api, chatID)
}

// handleDocumentList shows the user's uploaded documents with delete
// buttons.
func (b *Bot) handleDocumentList(ctx context.Context, api TelegramAPI, chatID int64) {
	uid, _, ok := b.requireSession(ctx, api, chatID)
	if !ok {
		return
	}

	docs, err := b.documentRepo.ListByUser(ctx, uid)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list documents")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	if len(docs) == 0 {
		b.sendScreen(ctx, api, chatID, "🗂 You have not uploaded any documents yet.", keyboard(
			row(btn("← Back", cbNavDocuments)),
		))
		return
	}

	text := fmt.Sprintf("🗂 Your documents (%d)\n\n", len(docs))
	rows := make([][]tgmodels.InlineKeyboardButton, 0, len(docs)+1)
	for i, doc := range docs {
		text += fmt.Sprintf("%d. %s — %s (%s)\n   %s\n",
			i+1, doc.DocumentType, doc.FileName,
			doc.UploadedAt.Format("02 Jan 2006"), verificationLabel(doc.Status))
		rows = append(rows, row(btn(
			fmt.Sprintf("🗑 Delete %d. %s", i+1, doc.FileName),
			cbDocDelPrefix+doc.ID,
		)))
	}
	rows = append(rows, row(btn("← Back", cbNavDocuments)))

	b.sendScreen(ctx, api, chatID, text, keyboard(rows...))
}

// handleDocumentDelete removes one document record.
func (b *Bot) handleDocumentDelete(ctx context.Context, api TelegramAPI, chatID int64, docID string) {
	uid, _, ok := b.requireSession(ctx, api, chatID)
	if !ok {
		return
	}

	// Document ids embed the owner's uid; refuse ids of other users.
	doc, err := b.documentRepo.GetByID(ctx, docID)
	if err != nil || doc.UserID != uid {
		if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
			logger.Log.Error().Err(err).Msg("Failed to load document")
		}
		b.sendScreen(ctx, api, chatID, "Document not found.", nil)
		return
	}

	if err := b.uploader.Delete(ctx, docID); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to delete document")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	b.sendScreen(ctx, api, chatID, fmt.Sprintf("🗑 Deleted %s.", doc.FileName), nil)
	b.handleDocumentList(ctx, api, chatID)
}

// handleDocumentExport sends the user's document inventory as a CSV file.
func (b *Bot) handleDocumentExport(ctx context.Context, api TelegramAPI, chatID int64) {
	uid, _, ok := b.requireSession(ctx, api, chatID)
	if !ok {
		return
	}

	docs, err := b.documentRepo.ListByUser(ctx, uid)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list documents")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	if len(docs) == 0 {
		b.sendScreen(ctx, api, chatID, "Nothing to export yet.", nil)
		return
	}

	data, err := kyc.GenerateInventoryCSV(docs)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	_, err = api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &tgmodels.InputFileUpload{
			Filename: kyc.InventoryFilename(time.Now()),
			Data:     bytes.NewReader(data),
		},
		Caption: fmt.Sprintf("📤 %d documents exported", len(docs)),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV export")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
	}
}

// handleVerificationVideo accepts the selfie video note and stores it as
// the hidden verification document.
func (b *Bot) handleVerificationVideo(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	note := msg.VideoNote

	if note.Duration > 10 {
		b.sendScreen(ctx, api, chatID, "The verification video must be 10 seconds or shorter. Please record again.", nil)
		return
	}

	uid, email, ok := b.requireSession(ctx, api, chatID)
	if !ok {
		return
	}

	if note.FileSize > kyc.MaxFileSize {
		b.sendScreen(ctx, api, chatID, fileTooLargeMessage, nil)
		return
	}

	data, err := b.downloadFile(ctx, api, note.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download verification video")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	b.sendScreen(ctx, api, chatID, "⏳ Uploading your verification video...", nil)

	doc, err := b.uploader.Upload(ctx, kyc.UploadInput{
		Category:  kyc.VerificationCategory,
		UserID:    uid,
		UserEmail: email,
		FileName:  "verification.mp4",
		MimeType:  "video/mp4",
		Data:      data,
	})
	if err != nil {
		if errors.Is(err, kyc.ErrFileTooLarge) {
			b.sendScreen(ctx, api, chatID, fileTooLargeMessage, nil)
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to upload verification video")
		b.sendScreen(ctx, api, chatID, "Upload failed. Please try again.", nil)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashChatID(chatID)).
		Str("document_id", doc.ID).
		Msg("Verification video submitted")

	b.sendScreen(ctx, api, chatID, "✅ Verification video submitted. Our team will review it shortly.", nil)
	b.dispatch(chatID, nav.Navigate{To: nav.ScreenKYCStatus})
	b.renderScreen(ctx, api, chatID)
}
