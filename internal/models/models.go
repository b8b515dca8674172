// Package models defines the domain entities for the LoanMate bot.
package models

import (
	"time"
)

// User represents a Telegram user interacting with the bot.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is an authenticated identity-provider session bound to a chat.
// It is persisted so a restart (or a new /start) can log the user back in
// without re-entering credentials.
type Session struct {
	ChatID       int64
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the ID token has passed its expiry,
// with a small skew allowance so a token is refreshed before the
// identity provider would reject it.
func (s *Session) Expired(now time.Time) bool {
	return !now.Add(30 * time.Second).Before(s.ExpiresAt)
}

// Verification states of an uploaded document. Documents start as
// pending; a back-office review moves them to verified or rejected.
const (
	DocumentStatusPending  = "pending"
	DocumentStatusVerified = "verified"
	DocumentStatusRejected = "rejected"
)

// UploadedDocument is the local record of a KYC document that was
// successfully uploaded to the media host. The local store is the
// system of record; the media host only holds the binary.
type UploadedDocument struct {
	ID                 string
	UserID             string
	DocumentType       string
	FileName           string
	FileSize           int64
	FileType           string
	CloudinaryURL      string
	CloudinaryPublicID string
	Status             string
	UploadedAt         time.Time
}

// DocumentCategory is a KYC document category and its completion requirement.
type DocumentCategory struct {
	Slug        string
	DisplayName string
	Description string
	Required    int
	Icon        string
	Color       string
}
