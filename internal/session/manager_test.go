package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loanmate/loanmate-bot/internal/identity"
	"github.com/loanmate/loanmate-bot/internal/models"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[int64]models.Session
	getErr   error
	putErr   error
	delErr   error
	puts     int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[int64]models.Session)}
}

func (s *memStore) Get(_ context.Context, chatID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	copied := sess
	return &copied, nil
}

func (s *memStore) Put(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.sessions[sess.ChatID] = *sess
	return nil
}

func (s *memStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.sessions, chatID)
	return nil
}

type stubRefresher struct {
	mu      sync.Mutex
	calls   int32
	delay   time.Duration
	account *identity.Account
	err     error
}

func (r *stubRefresher) RefreshToken(_ context.Context, _ string) (*identity.Account, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.account, nil
}

func testAccount() *identity.Account {
	return &identity.Account{
		UID:          "uid-123",
		Email:        "user@example.com",
		DisplayName:  "Priya",
		IDToken:      "id-token-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    time.Hour,
	}
}

func TestManager_EstablishAndCurrent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := NewManager(store, &stubRefresher{})
	ctx := context.Background()

	sess, err := m.Establish(ctx, 100, testAccount())
	require.NoError(t, err)
	require.Equal(t, int64(100), sess.ChatID)
	require.Equal(t, "uid-123", sess.UID)
	require.Equal(t, "user@example.com", sess.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	got, err := m.Current(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "uid-123", got.UID)
}

func TestManager_Current_NoSession(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemStore(), &stubRefresher{})
	_, err := m.Current(context.Background(), 999)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestManager_Current_StoreError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.getErr = errors.New("db down")
	m := NewManager(store, &stubRefresher{})

	_, err := m.Current(context.Background(), 100)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoSession)
}

func TestManager_Clear(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := NewManager(store, &stubRefresher{})
	ctx := context.Background()

	_, err := m.Establish(ctx, 100, testAccount())
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx, 100))

	_, err = m.Current(ctx, 100)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestManager_Subscribe(t *testing.T) {
	t.Parallel()

	m := NewManager(newMemStore(), &stubRefresher{})
	ctx := context.Background()

	type event struct {
		chatID int64
		sess   *models.Session
	}
	var mu sync.Mutex
	var events []event

	unsubscribe := m.Subscribe(func(chatID int64, sess *models.Session) {
		mu.Lock()
		events = append(events, event{chatID, sess})
		mu.Unlock()
	})

	_, err := m.Establish(ctx, 100, testAccount())
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, 100))

	mu.Lock()
	require.Len(t, events, 2)
	require.Equal(t, int64(100), events[0].chatID)
	require.NotNil(t, events[0].sess)
	require.Nil(t, events[1].sess, "sign-out notifies with a nil session")
	mu.Unlock()

	unsubscribe()

	_, err = m.Establish(ctx, 200, testAccount())
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, events, 2, "no events after unsubscribe")
	mu.Unlock()
}

func TestManager_Update(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := NewManager(store, &stubRefresher{})
	ctx := context.Background()

	sess, err := m.Establish(ctx, 100, testAccount())
	require.NoError(t, err)

	var notified *models.Session
	m.Subscribe(func(_ int64, s *models.Session) { notified = s })

	sess.DisplayName = "Priya Sharma"
	require.NoError(t, m.Update(ctx, sess))
	require.NotNil(t, notified)
	require.Equal(t, "Priya Sharma", notified.DisplayName)

	got, err := m.Current(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "Priya Sharma", got.DisplayName)
}

func TestManager_ValidToken_Fresh(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{}
	m := NewManager(store, refresher)
	ctx := context.Background()

	_, err := m.Establish(ctx, 100, testAccount())
	require.NoError(t, err)

	token, err := m.ValidToken(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "id-token-1", token)
	require.Equal(t, int32(0), atomic.LoadInt32(&refresher.calls), "fresh token needs no refresh")
}

func expiredSession(chatID int64) *models.Session {
	return &models.Session{
		ChatID:       chatID,
		UID:          "uid-123",
		Email:        "user@example.com",
		IDToken:      "stale-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
}

func TestManager_ValidToken_Refreshes(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{
		account: &identity.Account{
			IDToken:      "fresh-token",
			RefreshToken: "refresh-2",
			ExpiresIn:    time.Hour,
		},
	}
	m := NewManager(store, refresher)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, expiredSession(100)))

	token, err := m.ValidToken(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)

	// The refreshed session is re-persisted with rotated tokens.
	sess, err := m.Current(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "fresh-token", sess.IDToken)
	require.Equal(t, "refresh-2", sess.RefreshToken)
	require.False(t, sess.Expired(time.Now()))
}

func TestManager_ValidToken_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{
		account: &identity.Account{IDToken: "fresh-token", ExpiresIn: time.Hour},
	}
	m := NewManager(store, refresher)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, expiredSession(100)))

	_, err := m.ValidToken(ctx, 100)
	require.NoError(t, err)

	sess, err := m.Current(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestManager_ValidToken_SingleFlight(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{
		delay: 50 * time.Millisecond,
		account: &identity.Account{
			IDToken:   "fresh-token",
			ExpiresIn: time.Hour,
		},
	}
	m := NewManager(store, refresher)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, expiredSession(100)))

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.ValidToken(ctx, 100)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh-token", tokens[i])
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls), "concurrent callers share one refresh")
}

func TestManager_ValidToken_RefreshFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{err: errors.New("invalid grant")}
	m := NewManager(store, refresher)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, expiredSession(100)))

	_, err := m.ValidToken(ctx, 100)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to refresh session token")
}

func TestManager_ValidToken_CallerCancellation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	refresher := &stubRefresher{
		delay:   200 * time.Millisecond,
		account: &identity.Account{IDToken: "fresh-token", ExpiresIn: time.Hour},
	}
	m := NewManager(store, refresher)

	require.NoError(t, store.Put(context.Background(), expiredSession(100)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.ValidToken(ctx, 100)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The refresh itself completes in the background; a later caller gets
	// the fresh token without a second refresh.
	require.Eventually(t, func() bool {
		token, err := m.ValidToken(context.Background(), 100)
		return err == nil && token == "fresh-token"
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&refresher.calls))
}
