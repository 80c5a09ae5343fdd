package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/redmonkez12/novelverse/internal/config"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/user"
)

const minPasswordLength = 6

// Service handles authentication business logic
type Service struct {
	users    UserRepository
	verifier *Verifier
	captcha  CaptchaVerifier
	policy   config.VerificationPolicy
}

// NewService wires the auth flows. verifier is only used by the code policy
// and captcha only by the captcha policy; either may be nil otherwise.
func NewService(users UserRepository, verifier *Verifier, captcha CaptchaVerifier, policy config.VerificationPolicy) *Service {
	return &Service{
		users:    users,
		verifier: verifier,
		captcha:  captcha,
		policy:   policy,
	}
}

// Policy returns the active registration verification policy
func (s *Service) Policy() config.VerificationPolicy {
	return s.policy
}

// RequestCode issues a registration code for email
func (s *Service) RequestCode(ctx context.Context, email, purpose string) error {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return ErrInvalidEmailFormat
	}

	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		purpose = PurposeRegister
	}
	if purpose != PurposeRegister {
		return ErrInvalidPurpose
	}

	return s.verifier.Request(ctx, email, purpose)
}

// Register creates a new account once the active policy is satisfied
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	logger := logging.GetLoggerFromContext(ctx)

	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmailFormat
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if err := checkPolicyInput(s.policy, in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, user.ErrDuplicateEmail
	}

	if err := s.runPolicy(ctx, email, in); err != nil {
		return nil, err
	}

	// Hash password using argon2id
	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash, provesEmailOwnership(s.policy))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.policy == config.VerificationCode {
		if err := s.verifier.Consume(ctx, email, PurposeRegister); err != nil {
			logger.Warn("failed to delete used verification codes", "error", err)
		}
	}

	return newUser, nil
}

// Login checks credentials and returns the matching user
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Only the code policy proves email ownership, so only it gates login
	if provesEmailOwnership(s.policy) && !existingUser.Verified {
		return nil, ErrEmailNotVerified
	}

	return existingUser, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
