package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/novelverse/internal/database"
)

// SessionStore persists sessions in Postgres
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create stores a new session row
func (r *SessionStore) Create(ctx context.Context, session *database.Session) error {
	_, err := r.db.NewInsert().
		Model(session).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// FindUser joins the session to its user in a single round trip
func (r *SessionStore) FindUser(ctx context.Context, token string, now time.Time) (*SessionUser, error) {
	su := new(SessionUser)
	err := r.findUserQuery(token, now).Scan(ctx, &su.ID, &su.Email)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return su, nil
}

func (r *SessionStore) findUserQuery(token string, now time.Time) *bun.SelectQuery {
	return r.db.NewSelect().
		TableExpr("sessions AS s").
		ColumnExpr("u.id, u.email").
		Join("JOIN users AS u ON u.id = s.user_id").
		Where("s.token = ?", token).
		Where("s.expires_at > ?", now).
		Limit(1)
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*database.Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpired removes sessions past their expiry and reports how many
func (r *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.deleteExpiredQuery(now).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	return result.RowsAffected()
}

func (r *SessionStore) deleteExpiredQuery(now time.Time) *bun.DeleteQuery {
	return r.db.NewDelete().
		Model((*database.Session)(nil)).
		Where("expires_at <= ?", now)
}

// VerificationStore persists verification codes in Postgres
type VerificationStore struct {
	db *bun.DB
}

func NewVerificationStore(db *bun.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

func (r *VerificationStore) Latest(ctx context.Context, email, purpose string) (*database.VerificationCode, error) {
	vc := new(database.VerificationCode)
	err := r.latestQuery(vc, email, purpose).Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationCodeNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return vc, nil
}

// latestQuery selects the newest code; ties on created_at go to the higher id
func (r *VerificationStore) latestQuery(dest *database.VerificationCode, email, purpose string) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(dest).
		Where("email = ?", email).
		Where("purpose = ?", purpose).
		OrderExpr("created_at DESC, id DESC").
		Limit(1)
}

func (r *VerificationStore) Create(ctx context.Context, code *database.VerificationCode) error {
	_, err := r.db.NewInsert().
		Model(code).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return nil
}

func (r *VerificationStore) IncrementAttempts(ctx context.Context, id int64, max int) error {
	_, err := r.incrementAttemptsQuery(id, max).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}

	return nil
}

// incrementAttemptsQuery never pushes attempts past max
func (r *VerificationStore) incrementAttemptsQuery(id int64, max int) *bun.UpdateQuery {
	return r.db.NewUpdate().
		Model((*database.VerificationCode)(nil)).
		Set("attempts = attempts + 1").
		Where("id = ?", id).
		Where("attempts < ?", max)
}

func (r *VerificationStore) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*database.VerificationCode)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}

func (r *VerificationStore) DeleteAll(ctx context.Context, email, purpose string) error {
	_, err := r.db.NewDelete().
		Model((*database.VerificationCode)(nil)).
		Where("email = ?", email).
		Where("purpose = ?", purpose).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete verification codes: %w", err)
	}

	return nil
}

// DeleteExpired removes codes past their expiry and reports how many
func (r *VerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.VerificationCode)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired verification codes: %w", err)
	}

	return result.RowsAffected()
}
