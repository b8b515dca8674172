package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/loanmate/loanmate-bot/internal/database"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// SessionRepository persists identity sessions keyed by chat.
type SessionRepository struct {
	db database.PGXDB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db database.PGXDB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the session for a chat, or nil when none is stored.
func (r *SessionRepository) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	var sess models.Session
	err := r.db.QueryRow(ctx, `
		SELECT chat_id, uid, email, display_name, photo_url, id_token, refresh_token,
			expires_at, created_at, updated_at
		FROM sessions WHERE chat_id = $1
	`, chatID).Scan(
		&sess.ChatID, &sess.UID, &sess.Email, &sess.DisplayName, &sess.PhotoURL,
		&sess.IDToken, &sess.RefreshToken, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// Put creates or replaces the session for a chat.
func (r *SessionRepository) Put(ctx context.Context, sess *models.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (chat_id, uid, email, display_name, photo_url, id_token,
			refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			uid = EXCLUDED.uid,
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			id_token = EXCLUDED.id_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, sess.ChatID, sess.UID, sess.Email, sess.DisplayName, sess.PhotoURL,
		sess.IDToken, sess.RefreshToken, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Delete removes the session for a chat. Deleting an absent session is
// not an error.
func (r *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListActive returns every stored session, used by the KYC reminder loop.
func (r *SessionRepository) ListActive(ctx context.Context) ([]models.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chat_id, uid, email, display_name, photo_url, id_token, refresh_token,
			expires_at, created_at, updated_at
		FROM sessions ORDER BY chat_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(
			&sess.ChatID, &sess.UID, &sess.Email, &sess.DisplayName, &sess.PhotoURL,
			&sess.IDToken, &sess.RefreshToken, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}
