package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/logger"
)

const (
	// ReminderCheckInterval is how often the reminder loop checks whether to send reminders.
	ReminderCheckInterval = 30 * time.Minute
	// ReminderTimeout is the maximum time a single reminder sweep can take.
	ReminderTimeout = 2 * time.Minute
)

// startKYCReminderLoop runs a periodic loop that nudges signed-in users
// whose KYC documents are still incomplete.
func (b *Bot) startKYCReminderLoop(ctx context.Context) {
	if !b.cfg.DailyReminderEnabled {
		logger.Log.Info().Msg("Daily KYC reminder is disabled")
		return
	}

	loc, err := time.LoadLocation(b.cfg.ReminderTimezone)
	if err != nil {
		logger.Log.Error().Err(err).Str("timezone", b.cfg.ReminderTimezone).Msg("Failed to load reminder timezone, disabling reminders")
		return
	}

	logger.Log.Info().
		Int("hour", b.cfg.ReminderHour).
		Str("timezone", b.cfg.ReminderTimezone).
		Msg("Daily KYC reminder loop started")

	reminded := make(map[int64]string)
	ticker := time.NewTicker(ReminderCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Daily KYC reminder loop stopped")
		return
	default:
	}

	// Run one check immediately so reminders aren't skipped when the process
	// starts during the configured reminder hour.
	b.checkAndSendReminders(ctx, reminded, time.Now().In(loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Daily KYC reminder loop stopped")
			return
		case <-ticker.C:
			b.checkAndSendReminders(ctx, reminded, time.Now().In(loc))
		}
	}
}

// checkAndSendReminders sends one reminder per chat per day, during the
// configured hour, to chats whose document progress is below 100%. The
// reminded map tracks which chats were already notified today.
func (b *Bot) checkAndSendReminders(ctx context.Context, reminded map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.ReminderHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	todayStr := now.Format("2006-01-02")

	// Prune entries from previous days so the map doesn't grow unbounded.
	for chatID, dateStr := range reminded {
		if dateStr != todayStr {
			delete(reminded, chatID)
		}
	}

	sessions, err := b.sessionRepo.ListActive(checkCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch sessions for KYC reminder")
		return
	}

	for _, sess := range sessions {
		if reminded[sess.ChatID] == todayStr {
			continue
		}

		docs, err := b.documentRepo.ListByUser(checkCtx, sess.UID)
		if err != nil {
			logger.Log.Warn().Err(err).Str("chat_hash", logger.HashChatID(sess.ChatID)).Msg("Failed to load documents for reminder")
			continue
		}

		percent := kyc.OverallPercent(kyc.Progress(docs))
		if percent >= 100 {
			continue
		}

		name := sess.DisplayName
		if name == "" {
			name = "there"
		}

		text := fmt.Sprintf(
			"Hey %s! Your KYC documents are %.0f%% complete. Finish uploading them to keep your loan application moving.",
			name, percent,
		)

		_, err = b.messageSender.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID: sess.ChatID,
			Text:   text,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("chat_hash", logger.HashChatID(sess.ChatID)).Msg("Failed to send KYC reminder")
			continue
		}

		reminded[sess.ChatID] = todayStr
		logger.Log.Debug().Str("chat_hash", logger.HashChatID(sess.ChatID)).Msg("Sent KYC reminder")
	}
}
