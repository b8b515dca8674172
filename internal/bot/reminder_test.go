package bot

import (
	"context"
	"testing"
	"time"

	"github.com/loanmate/loanmate-bot/internal/bot/mocks"
	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/kyc"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/stretchr/testify/require"
)

// reminderTime is inside the configured reminder hour of setupTestBot.
var reminderTime = time.Date(2025, 6, 15, 20, 5, 0, 0, time.UTC)

// establishSession stores a signed-in session without touching nav state.
func establishSession(t *testing.T, b *Bot, chatID int64, displayName string) {
	t.Helper()

	account := &identity.Account{
		UID:          "uid-123",
		Email:        "user@example.com",
		DisplayName:  displayName,
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    time.Hour,
	}
	_, err := b.sessions.Establish(context.Background(), chatID, account)
	require.NoError(t, err)
}

// completeDocs returns the full required set across every KYC category.
func completeDocs(userID string) []models.UploadedDocument {
	var docs []models.UploadedDocument
	for _, cat := range kyc.Categories {
		for i := 0; i < cat.Required; i++ {
			docs = append(docs, models.UploadedDocument{
				ID:           cat.Slug + "-" + string(rune('a'+i)),
				UserID:       userID,
				DocumentType: cat.DisplayName,
				Status:       models.DocumentStatusPending,
				UploadedAt:   time.Now(),
			})
		}
	}
	return docs
}

func TestReminder_SendsToIncompleteUser(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")

	reminded := make(map[int64]string)
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)

	require.Equal(t, 1, mock.SentMessageCount())
	require.Equal(t,
		"Hey Priya! Your KYC documents are 0% complete. Finish uploading them to keep your loan application moving.",
		mock.LastSentMessage().Text)
	require.Equal(t, "2025-06-15", reminded[100])
}

func TestReminder_OncePerDay(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")

	reminded := make(map[int64]string)
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)
	b.checkAndSendReminders(context.Background(), reminded, reminderTime.Add(30*time.Minute))

	require.Equal(t, 1, mock.SentMessageCount(), "second sweep of the day sends nothing")
}

func TestReminder_OutsideConfiguredHour(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")

	reminded := make(map[int64]string)
	b.checkAndSendReminders(context.Background(), reminded,
		time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))

	require.Equal(t, 0, mock.SentMessageCount())
	require.Empty(t, reminded)
}

func TestReminder_SkipsCompleteUser(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")
	deps.documents.Docs = completeDocs("uid-123")

	reminded := make(map[int64]string)
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)

	require.Equal(t, 0, mock.SentMessageCount())
}

func TestReminder_NameFallback(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "")

	reminded := make(map[int64]string)
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)

	require.Contains(t, mock.LastSentMessage().Text, "Hey there!")
}

func TestReminder_PrunesPreviousDays(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")

	reminded := map[int64]string{
		100: "2025-06-14",
		999: "2025-06-14",
	}
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)

	require.Equal(t, 1, mock.SentMessageCount(), "yesterday's entry does not suppress today's reminder")
	require.Equal(t, "2025-06-15", reminded[100])
	require.NotContains(t, reminded, int64(999))
}

func TestReminder_SendFailureRetriesNextSweep(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	b.messageSender = mock
	establishSession(t, b, 100, "Priya")

	reminded := make(map[int64]string)
	mock.SendMessageError = context.DeadlineExceeded
	b.checkAndSendReminders(context.Background(), reminded, reminderTime)
	require.Empty(t, reminded, "failed sends are not marked as reminded")

	mock.SendMessageError = nil
	b.checkAndSendReminders(context.Background(), reminded, reminderTime.Add(30*time.Minute))
	require.Equal(t, 1, mock.SentMessageCount())
	require.Equal(t, "2025-06-15", reminded[100])
}
