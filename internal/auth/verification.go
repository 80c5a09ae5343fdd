package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/logging"
)

const (
	PurposeRegister = "register"

	CodeValidity    = 10 * time.Minute
	CodeCooldown    = 60 * time.Second
	MaxCodeAttempts = 5
)

// Verifier issues and checks emailed one-time codes.
//
// Only the newest code per (email, purpose) is ever consulted, and attempts
// are counted per code: requesting a fresh code starts a new budget.
type Verifier struct {
	repo   VerificationRepository
	sender CodeSender
	now    func() time.Time
}

func NewVerifier(repo VerificationRepository, sender CodeSender) *Verifier {
	return &Verifier{
		repo:   repo,
		sender: sender,
		now:    time.Now,
	}
}

// Request stores a new code for email and sends it. If sending fails the
// stored row is removed again so no undeliverable code lingers.
func (v *Verifier) Request(ctx context.Context, email, purpose string) error {
	logger := logging.GetLoggerFromContext(ctx)
	now := v.now()

	latest, err := v.repo.Latest(ctx, email, purpose)
	if err != nil && !errors.Is(err, ErrVerificationCodeNotFound) {
		return err
	}
	if latest != nil && latest.CreatedAt.After(now.Add(-CodeCooldown)) {
		return ErrCodeRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	row := &database.VerificationCode{
		Email:     email,
		CodeHash:  hashCode(code),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeValidity),
	}
	if err := v.repo.Create(ctx, row); err != nil {
		return err
	}

	if err := v.sender.SendVerificationCode(ctx, email, code, CodeValidity); err != nil {
		if delErr := v.repo.Delete(ctx, row.ID); delErr != nil {
			logger.Error("failed to remove undelivered verification code", "error", delErr)
		}
		return fmt.Errorf("%w: %v", ErrCodeDelivery, err)
	}

	return nil
}

// Validate checks code against the newest row for (email, purpose).
// A mismatch consumes one attempt.
func (v *Verifier) Validate(ctx context.Context, email, purpose, code string) error {
	row, err := v.repo.Latest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, ErrVerificationCodeNotFound) {
			return ErrCodeNotRequested
		}
		return err
	}

	if v.now().After(row.ExpiresAt) {
		return ErrCodeExpired
	}
	if row.Attempts >= MaxCodeAttempts {
		return ErrTooManyAttempts
	}

	if hashCode(code) != row.CodeHash {
		if err := v.repo.IncrementAttempts(ctx, row.ID, MaxCodeAttempts); err != nil {
			return err
		}
		return ErrWrongCode
	}

	return nil
}

// Consume deletes every code for (email, purpose) after a successful use
func (v *Verifier) Consume(ctx context.Context, email, purpose string) error {
	return v.repo.DeleteAll(ctx, email, purpose)
}

// PurgeExpired removes codes past their expiry
func (v *Verifier) PurgeExpired(ctx context.Context) (int64, error) {
	return v.repo.DeleteExpired(ctx, v.now())
}
