package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/user"
)

// RateLimiter counts requests per client ip and purpose
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	sessions    *SessionManager
	rateLimiter RateLimiter
}

func NewHandler(service *Service, sessions *SessionManager, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
	}
}

// RequestCodeRequest represents the verification code request body
type RequestCodeRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// RegisterRequest represents the registration request body.
// Code is read under the code policy, CaptchaToken under the captcha policy.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Code         string `json:"code,omitempty"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeResponse wraps the current user, null when signed out
type MeResponse struct {
	User *SessionUser `json:"user"`
}

// RequestCode handles verification code requests
// @Summary      Request a registration code
// @Description  Email a six digit code valid for 10 minutes. One request per email every 60 seconds.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RequestCodeRequest true "Email and purpose"
// @Success      200 {object} httputil.OKResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid email or purpose"
// @Failure      429 {object} httputil.ErrorResponse "Requested too recently"
// @Failure      500 {object} httputil.ErrorResponse "Email could not be sent"
// @Router       /api/auth/request-code [post]
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowRequest(w, r, "request-code") {
		return
	}

	var req RequestCodeRequest
	if err := httputil.DecodeJSON(w, r, 0, &req); err != nil {
		logger.Warn("invalid request-code body", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.RequestCode(r.Context(), req.Email, req.Purpose); err != nil {
		respondAuthError(w, logger, err, "request code")
		return
	}

	logger.Info("verification code issued")
	httputil.RespondOK(w)
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an account. Depending on the deployment a code from request-code or a captcha token is required. Sets the nv_session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      200 {object} httputil.OKResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid input or code"
// @Failure      401 {object} httputil.ErrorResponse "Wrong code"
// @Failure      403 {object} httputil.ErrorResponse "Human verification failed"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many attempts"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowRequest(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, 0, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Code:         req.Code,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     getClientIP(r),
	})
	if err != nil {
		respondAuthError(w, logger, err, "registration")
		return
	}

	if _, err := h.sessions.Issue(r.Context(), w, newUser.ID); err != nil {
		logger.Error("failed to issue session after registration", "error", err)
		httputil.RespondInternalError(w, "failed to register user")
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	httputil.RespondOK(w)
}

// Login handles user login
// @Summary      User login
// @Description  Check credentials and set the nv_session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.OKResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Account not verified"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowRequest(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, 0, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	existingUser, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(w, logger, err, "login")
		return
	}

	if _, err := h.sessions.Issue(r.Context(), w, existingUser.ID); err != nil {
		logger.Error("failed to issue session", "error", err)
		httputil.RespondInternalError(w, "failed to login")
		return
	}

	logger.Info("user logged in successfully", "user_id", existingUser.ID)
	httputil.RespondOK(w)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Delete the current session and clear the cookie. Succeeds without a session.
// @Tags         auth
// @Produce      json
// @Success      200 {object} httputil.OKResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Revoke clears the cookie before touching the store
	if err := h.sessions.Revoke(r.Context(), w, r); err != nil {
		logger.Error("failed to delete session", "error", err)
		httputil.RespondInternalError(w, "failed to log out")
		return
	}

	logger.Info("user logged out")
	httputil.RespondOK(w)
}

// Me returns the signed-in user
// @Summary      Current user
// @Description  Return the user behind the session cookie, or null
// @Tags         auth
// @Produce      json
// @Success      200 {object} MeResponse
// @Router       /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	su, err := h.sessions.Resolve(r.Context(), r)
	if err != nil {
		logger.Error("failed to resolve session", "error", err)
		su = nil
	}

	httputil.RespondJSON(w, MeResponse{User: su}, http.StatusOK)
}

// allowRequest applies the per-ip limit for purpose. Limiter failures let
// the request through.
func (h *Handler) allowRequest(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return true
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return true
}

// respondAuthError maps auth sentinels to a status and machine-readable code
func respondAuthError(w http.ResponseWriter, logger *logging.Logger, err error, action string) {
	var (
		status int
		code   string
	)

	switch {
	case errors.Is(err, ErrInvalidEmailFormat):
		status, code = http.StatusBadRequest, httputil.CodeInvalidEmailFormat
	case errors.Is(err, ErrPasswordTooShort):
		status, code = http.StatusBadRequest, httputil.CodePasswordTooShort
	case errors.Is(err, ErrInvalidPurpose):
		status, code = http.StatusBadRequest, httputil.CodeInvalidPurpose
	case errors.Is(err, ErrInvalidCodeFormat):
		status, code = http.StatusBadRequest, httputil.CodeInvalidCodeFormat
	case errors.Is(err, ErrCodeNotRequested):
		status, code = http.StatusBadRequest, httputil.CodeCodeNotRequested
	case errors.Is(err, ErrCodeExpired):
		status, code = http.StatusBadRequest, httputil.CodeCodeExpired
	case errors.Is(err, ErrCaptchaRequired):
		status, code = http.StatusBadRequest, httputil.CodeCaptchaRequired
	case errors.Is(err, ErrWrongCode):
		status, code = http.StatusUnauthorized, httputil.CodeWrongCode
	case errors.Is(err, ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, httputil.CodeInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		status, code = http.StatusForbidden, httputil.CodeEmailNotVerified
	case errors.Is(err, ErrCaptchaFailed):
		status, code = http.StatusForbidden, httputil.CodeCaptchaFailed
	case errors.Is(err, user.ErrDuplicateEmail):
		status, code = http.StatusConflict, httputil.CodeEmailAlreadyExists
	case errors.Is(err, ErrTooManyAttempts):
		status, code = http.StatusTooManyRequests, httputil.CodeTooManyAttempts
	case errors.Is(err, ErrCodeRateLimited):
		status, code = http.StatusTooManyRequests, httputil.CodeCooldownActive
	case errors.Is(err, ErrCodeDelivery):
		logger.Error(action+" failed: could not send email", "error", err.Error())
		httputil.RespondErrorWithCode(w, ErrCodeDelivery.Error(), httputil.CodeVerificationSendError, http.StatusInternalServerError)
		return
	default:
		logger.Error(action+" failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, "internal server error")
		return
	}

	logger.Warn(action+" failed", "error", err.Error())
	httputil.RespondErrorWithCode(w, err.Error(), code, status)
}

// getClientIP returns the client address. chi's RealIP middleware has
// already folded X-Forwarded-For / X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return strings.TrimSpace(ip)
}
