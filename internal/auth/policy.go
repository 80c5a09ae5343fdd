package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/redmonkez12/novelverse/internal/config"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// RegisterInput carries every field any registration policy may need.
// Which of Code and CaptchaToken is read depends on the active policy.
type RegisterInput struct {
	Email        string
	Password     string
	Code         string
	CaptchaToken string
	RemoteIP     string
}

// provesEmailOwnership reports whether accounts created under p start verified.
// Only the emailed code shows the user controls the address.
func provesEmailOwnership(p config.VerificationPolicy) bool {
	return p == config.VerificationCode
}

// checkPolicyInput validates the policy specific fields without doing any I/O
func checkPolicyInput(p config.VerificationPolicy, in RegisterInput) error {
	switch p {
	case config.VerificationCode:
		if !codePattern.MatchString(strings.TrimSpace(in.Code)) {
			return ErrInvalidCodeFormat
		}
	case config.VerificationCaptcha:
		if strings.TrimSpace(in.CaptchaToken) == "" {
			return ErrCaptchaRequired
		}
	}
	return nil
}

// runPolicy performs the policy's proof against its external collaborator
func (s *Service) runPolicy(ctx context.Context, email string, in RegisterInput) error {
	switch s.policy {
	case config.VerificationCode:
		return s.verifier.Validate(ctx, email, PurposeRegister, strings.TrimSpace(in.Code))
	case config.VerificationCaptcha:
		ok, err := s.captcha.Verify(ctx, strings.TrimSpace(in.CaptchaToken), in.RemoteIP)
		if err != nil {
			return fmt.Errorf("failed to verify captcha: %w", err)
		}
		if !ok {
			return ErrCaptchaFailed
		}
	}
	return nil
}
