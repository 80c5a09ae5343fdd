package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	SessionUserContextKey ContextKey = "session_user"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	sessions *SessionManager
}

func NewMiddleware(sessions *SessionManager) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireAuth rejects requests without a live session cookie
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		su, err := m.sessions.Resolve(r.Context(), r)
		if err != nil {
			logger.Error("failed to resolve session", "error", err)
			httputil.RespondInternalError(w, "internal server error")
			return
		}
		if su == nil {
			httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		logging.AddFields(r.Context(), map[string]any{"user_id": su.ID})

		ctx := WithSessionUser(r.Context(), su)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithSessionUser stores the resolved user in ctx
func WithSessionUser(ctx context.Context, su *SessionUser) context.Context {
	return context.WithValue(ctx, SessionUserContextKey, su)
}

// GetSessionUserFromContext extracts the authenticated user from the request context
func GetSessionUserFromContext(ctx context.Context) (*SessionUser, bool) {
	su, ok := ctx.Value(SessionUserContextKey).(*SessionUser)
	return su, ok && su != nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	su, ok := GetSessionUserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return su.ID, true
}
