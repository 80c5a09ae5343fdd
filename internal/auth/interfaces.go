package auth

import (
	"context"
	"time"

	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/user"
)

// UserRepository is the subset of user storage the auth flows need
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string, verified bool) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *database.Session) error
	// FindUser resolves a token to its owner. Unknown and expired tokens
	// both return ErrSessionNotFound.
	FindUser(ctx context.Context, token string, now time.Time) (*SessionUser, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// VerificationRepository defines the interface for verification code storage
type VerificationRepository interface {
	// Latest returns the newest row for (email, purpose) or ErrVerificationCodeNotFound
	Latest(ctx context.Context, email, purpose string) (*database.VerificationCode, error)
	Create(ctx context.Context, code *database.VerificationCode) error
	// IncrementAttempts bumps attempts by one unless it already reached max
	IncrementAttempts(ctx context.Context, id int64, max int) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, email, purpose string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CodeSender delivers a plaintext verification code to its owner
type CodeSender interface {
	SendVerificationCode(ctx context.Context, toEmail, code string, validFor time.Duration) error
}

// CaptchaVerifier checks a human-verification token with the provider
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}
