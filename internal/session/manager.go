// Package session holds the authenticated identity session for each chat.
// Sessions are persisted so a restart logs users straight back in, and
// interested components subscribe to session changes instead of polling.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/models"
)

// ErrNoSession is returned when a chat has no stored session.
var ErrNoSession = errors.New("no active session")

// Store persists sessions across restarts.
type Store interface {
	Get(ctx context.Context, chatID int64) (*models.Session, error)
	Put(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, chatID int64) error
}

// TokenRefresher exchanges a refresh token for fresh credentials.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*identity.Account, error)
}

// Listener is notified after a chat's session changes. A nil session
// means the chat signed out.
type Listener func(chatID int64, sess *models.Session)

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Manager owns session state: establish on sign-in, clear on sign-out,
// and transparent token refresh with in-flight deduplication per chat.
type Manager struct {
	store     Store
	refresher TokenRefresher

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	inFlight  map[int64]*refreshCall
}

// NewManager creates a session manager.
func NewManager(store Store, refresher TokenRefresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		listeners: make(map[int]Listener),
		inFlight:  make(map[int64]*refreshCall),
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(chatID int64, sess *models.Session) {
	m.mu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(chatID, sess)
	}
}

// Current returns the stored session for a chat, or ErrNoSession.
func (m *Manager) Current(ctx context.Context, chatID int64) (*models.Session, error) {
	sess, err := m.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Establish persists a freshly authenticated account as the chat's session
// and notifies subscribers.
func (m *Manager) Establish(ctx context.Context, chatID int64, acct *identity.Account) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ChatID:       chatID,
		UID:          acct.UID,
		Email:        acct.Email,
		DisplayName:  acct.DisplayName,
		PhotoURL:     acct.PhotoURL,
		IDToken:      acct.IDToken,
		RefreshToken: acct.RefreshToken,
		ExpiresAt:    now.Add(acct.ExpiresIn),
	}

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.notify(chatID, sess)
	return sess, nil
}

// Update persists profile changes on an existing session and notifies
// subscribers.
func (m *Manager) Update(ctx context.Context, sess *models.Session) error {
	if err := m.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session update: %w", err)
	}
	m.notify(sess.ChatID, sess)
	return nil
}

// Clear signs the chat out and notifies subscribers with a nil session.
func (m *Manager) Clear(ctx context.Context, chatID int64) error {
	if err := m.store.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.notify(chatID, nil)
	return nil
}

// ValidToken returns a non-expired ID token for the chat, refreshing and
// re-persisting the session when needed. Concurrent callers for the same
// chat share a single refresh request.
func (m *Manager) ValidToken(ctx context.Context, chatID int64) (string, error) {
	sess, err := m.Current(ctx, chatID)
	if err != nil {
		return "", err
	}
	if !sess.Expired(time.Now()) {
		return sess.IDToken, nil
	}

	m.mu.Lock()
	if call, waiting := m.inFlight[chatID]; waiting {
		m.mu.Unlock()
		return waitForRefresh(ctx, call)
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inFlight[chatID] = call
	m.mu.Unlock()

	// Refresh with cancellation detached from a single caller so one
	// short-deadline caller cannot fail all concurrent waiters.
	go m.refreshAndBroadcast(context.WithoutCancel(ctx), chatID, sess, call)
	return waitForRefresh(ctx, call)
}

func (m *Manager) refreshAndBroadcast(ctx context.Context, chatID int64, sess *models.Session, call *refreshCall) {
	token, err := m.refresh(ctx, chatID, sess)

	m.mu.Lock()
	call.token = token
	call.err = err
	delete(m.inFlight, chatID)
	close(call.done)
	m.mu.Unlock()
}

func (m *Manager) refresh(ctx context.Context, chatID int64, sess *models.Session) (string, error) {
	if m.refresher == nil {
		return "", errors.New("token refresher is required")
	}

	acct, err := m.refresher.RefreshToken(ctx, sess.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh session token: %w", err)
	}

	sess.IDToken = acct.IDToken
	if acct.RefreshToken != "" {
		sess.RefreshToken = acct.RefreshToken
	}
	sess.ExpiresAt = time.Now().Add(acct.ExpiresIn)

	if err := m.store.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	return sess.IDToken, nil
}

func waitForRefresh(ctx context.Context, call *refreshCall) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-call.done:
		return call.token, call.err
	}
}
