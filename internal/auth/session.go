package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/novelverse/internal/database"
)

// SessionUser is the identity a session token resolves to
type SessionUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// SessionManager issues, resolves and revokes cookie sessions.
// Sessions have a fixed lifetime; there is no rotation or sliding expiry.
type SessionManager struct {
	repo   SessionRepository
	secure bool
	now    func() time.Time
}

func NewSessionManager(repo SessionRepository, secure bool) *SessionManager {
	return &SessionManager{
		repo:   repo,
		secure: secure,
		now:    time.Now,
	}
}

// Issue creates a session row for userID and sets the cookie
func (m *SessionManager) Issue(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := m.now()
	session := &database.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}
	if err := m.repo.Create(ctx, session); err != nil {
		return "", err
	}

	SetSessionCookie(w, token, m.secure)
	return token, nil
}

// Resolve returns the user owning the request's session cookie, or nil
// when there is no cookie or the token is unknown or expired.
func (m *SessionManager) Resolve(ctx context.Context, r *http.Request) (*SessionUser, error) {
	token, err := GetSessionTokenFromCookie(r)
	if err != nil {
		return nil, nil
	}

	su, err := m.repo.FindUser(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return su, nil
}

// Revoke deletes the session behind the cookie, if any, and always clears the cookie
func (m *SessionManager) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ClearSessionCookie(w, m.secure)

	token, err := GetSessionTokenFromCookie(r)
	if err != nil {
		return nil
	}

	return m.repo.Delete(ctx, token)
}

// PurgeExpired removes sessions that can no longer resolve
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}
