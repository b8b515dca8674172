package bot

import (
	"context"
	"errors"
	"fmt"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/loanmate/loanmate-bot/internal/gemini"
	"github.com/loanmate/loanmate-bot/internal/logger"
)

const assistantUnavailableMessage = "The assistant is unavailable right now. Please try again in a moment."

// handleChatText relays one message to the assistant. The held history is
// replaced only when the relay succeeds, so a failed turn can be retried
// without losing context.
func (b *Bot) handleChatText(ctx context.Context, api TelegramAPI, chatID int64, text string) {
	reply, newHistory, err := b.chatClient.Send(ctx, text, b.history(chatID))
	if err != nil {
		logger.Log.Error().
			Str("chat_hash", logger.HashChatID(chatID)).
			Err(err).
			Msg("Assistant relay failed")
		b.sendScreen(ctx, api, chatID, assistantUnavailableMessage, nil)
		return
	}

	b.setHistory(chatID, newHistory)
	b.sendScreen(ctx, api, chatID, reply, nil)
}

// handleChatVoice transcribes a voice note and relays the transcript.
func (b *Bot) handleChatVoice(ctx context.Context, api TelegramAPI, update *tgmodels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if b.transcriber == nil {
		b.sendScreen(ctx, api, chatID, "Voice messages are not available. Please type your question instead.", nil)
		return
	}

	data, err := b.downloadFile(ctx, api, msg.Voice.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download voice message")
		b.sendScreen(ctx, api, chatID, errorMessage, nil)
		return
	}

	mimeType := msg.Voice.MimeType
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	transcript, err := b.transcriber.TranscribeVoice(ctx, data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, gemini.ErrNoSpeech):
			b.sendScreen(ctx, api, chatID, "I could not hear anything in that message. Please try again.", nil)
		case errors.Is(err, gemini.ErrTranscribeTimeout):
			b.sendScreen(ctx, api, chatID, "That took too long to process. Please try a shorter message.", nil)
		default:
			logger.Log.Error().Err(err).Msg("Failed to transcribe voice message")
			b.sendScreen(ctx, api, chatID, "Sorry, I could not process that voice message.", nil)
		}
		return
	}

	b.sendScreen(ctx, api, chatID, fmt.Sprintf("🎤 You said: %s", transcript), nil)
	b.handleChatText(ctx, api, chatID, transcript)
}
