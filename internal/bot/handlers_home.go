package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/loanmate/loanmate-bot/internal/media"
	"github.com/loanmate/loanmate-bot/internal/nav"
)

// beginNameEdit prompts for a new display name.
func (b *Bot) beginNameEdit(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, &pendingInput{kind: pendingProfileName})
	b.sendScreen(ctx, api, chatID, "✏️ Send your new display name:", nil)
}

// handleNameEditInput saves a new display name to the identity provider
// and the stored session.
func (b *Bot) handleNameEditInput(ctx context.Context, api TelegramAPI, chatID int64, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendScreen(ctx, api, chatID, "Please fill all fields", nil)
		return
	}

	b.setPending(chatID, nil)

	token, err := b.sessions.ValidToken(ctx, chatID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to get session token")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	if _, err := b.identityClient.UpdateProfile(ctx, token, name, ""); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to update profile name")
		b.sendScreen(ctx, api, chatID, authErrorMessage(err), nil)
		return
	}

	sess, err := b.sessions.Current(ctx, chatID)
	if err == nil {
		sess.DisplayName = name
		if err := b.sessions.Update(ctx, sess); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to persist session update")
		}
	}

	b.sendScreen(ctx, api, chatID, "✅ Name updated.", nil)
	b.renderProfile(ctx, api, chatID)
}

// beginAvatarUpload prompts for a profile photo.
func (b *Bot) beginAvatarUpload(ctx context.Context, api TelegramAPI, chatID int64) {
	b.setPending(chatID, &pendingInput{kind: pendingProfileAvatar})
	b.sendScreen(ctx, api, chatID, "🖼 Send a photo to use as your profile picture:", nil)
}

// handleAvatarPhoto stores the photo on the media host and points the
// identity profile at it.
func (b *Bot) handleAvatarPhoto(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	fileID, fileName, mimeType := attachmentInfo(msg)
	if fileID == "" {
		b.sendScreen(ctx, api, chatID, "Send a photo to use as your profile picture, or press Back.", nil)
		return
	}

	b.setPending(chatID, nil)

	sess, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	data, err := b.downloadFile(ctx, api, fileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download avatar")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	result, err := b.mediaClient.Upload(ctx, media.UploadRequest{
		Data:     data,
		FileName: fileName,
		MimeType: mimeType,
		Preset:   media.PresetFor("avatar"),
		Folder:   media.FolderFor("avatar"),
		PublicID: fmt.Sprintf("avatar_%s_%d", sess.UID, time.Now().UnixMilli()),
		Tags:     []string{sess.UID, "avatar"},
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to upload avatar")
		b.sendScreen(ctx, api, chatID, "Upload failed. Please try again.", nil)
		return
	}

	token, err := b.sessions.ValidToken(ctx, chatID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to get session token")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	if _, err := b.identityClient.UpdateProfile(ctx, token, "", result.SecureURL); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to update profile photo")
		b.sendScreen(ctx, api, chatID, authErrorMessage(err), nil)
		return
	}

	sess.PhotoURL = result.SecureURL
	if err := b.sessions.Update(ctx, sess); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to persist session update")
	}

	b.sendScreen(ctx, api, chatID, "✅ Profile photo updated.", nil)
	b.renderProfile(ctx, api, chatID)
}

// attachmentInfo extracts the largest photo or the attached document from
// a message, with a usable file name and MIME type.
func attachmentInfo(msg *tgmodels.Message) (fileID, fileName, mimeType string) {
	if len(msg.Photo) > 0 {
		largest := msg.Photo[len(msg.Photo)-1]
		return largest.FileID, "photo.jpg", "image/jpeg"
	}
	if msg.Document != nil {
		name := msg.Document.FileName
		if name == "" {
			name = "document"
		}
		mime := msg.Document.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		return msg.Document.FileID, name, mime
	}
	return "", "", ""
}

// declaredAttachmentSize returns the size Telegram reports for the
// attachment, before any download happens.
func declaredAttachmentSize(msg *tgmodels.Message) int64 {
	if len(msg.Photo) > 0 {
		return int64(msg.Photo[len(msg.Photo)-1].FileSize)
	}
	if msg.Document != nil {
		return msg.Document.FileSize
	}
	return 0
}

// requireSession loads the chat's session or renders the login screen.
func (b *Bot) requireSession(ctx context.Context, api TelegramAPI, chatID int64) (uid, email string, ok bool) {
	sess, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.dispatch(chatID, nav.SignedOut{})
		b.renderScreen(ctx, api, chatID)
		return "", "", false
	}
	return sess.UID, sess.Email, true
}
