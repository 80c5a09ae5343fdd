package httputil

// Machine-readable error codes returned alongside error messages
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeBodyTooLarge       = "BODY_TOO_LARGE"
	CodeRouteNotFound      = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"

	// auth
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInvalidEmailFormat    = "INVALID_EMAIL_FORMAT"
	CodePasswordTooShort      = "PASSWORD_TOO_SHORT"
	CodeInvalidPurpose        = "INVALID_PURPOSE"
	CodeEmailAlreadyExists    = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	CodeInvalidCodeFormat     = "INVALID_CODE_FORMAT"
	CodeCodeNotRequested      = "CODE_NOT_REQUESTED"
	CodeCodeExpired           = "CODE_EXPIRED"
	CodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
	CodeWrongCode             = "WRONG_CODE"
	CodeCooldownActive        = "COOLDOWN_ACTIVE"
	CodeCaptchaRequired       = "CAPTCHA_REQUIRED"
	CodeCaptchaFailed         = "CAPTCHA_FAILED"
	CodeVerificationSendError = "VERIFICATION_SEND_FAILED"

	// novels
	CodeNovelNotFound   = "NOVEL_NOT_FOUND"
	CodeChapterNotFound = "CHAPTER_NOT_FOUND"
	CodeTitleRequired   = "TITLE_REQUIRED"
	CodeChapterRequired = "CHAPTER_REQUIRED"

	// uploads
	CodeInvalidDataURL = "INVALID_DATA_URL"
	CodeCoverTooLarge  = "COVER_TOO_LARGE"
)
