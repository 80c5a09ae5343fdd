package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("account not verified")
	ErrInvalidEmailFormat = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidPurpose     = errors.New("invalid purpose")

	ErrInvalidCodeFormat = errors.New("code must be 6 digits")
	ErrCodeNotRequested  = errors.New("must request a code first")
	ErrCodeExpired       = errors.New("code expired")
	ErrTooManyAttempts   = errors.New("too many attempts, request a new code")
	ErrWrongCode         = errors.New("wrong code")
	ErrCodeRateLimited   = errors.New("wait 60 seconds before requesting another code")
	ErrCodeDelivery      = errors.New("failed to send verification code")

	ErrCaptchaRequired = errors.New("captcha token is required")
	ErrCaptchaFailed   = errors.New("human verification failed")

	ErrSessionNotFound          = errors.New("session not found")
	ErrVerificationCodeNotFound = errors.New("verification code not found")
)
