package upload

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
)

// MaxUploadBodyBytes fits a base64 encoded cover of MaxCoverBytes
const MaxUploadBodyBytes int64 = 3_500_000

// Handler contains HTTP handlers for uploads
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UploadCoverRequest carries the image as a data URL
type UploadCoverRequest struct {
	DataURL  string `json:"dataUrl" example:"data:image/png;base64,iVBORw0KGgo="`
	Filename string `json:"filename" example:"cover.png"`
}

// UploadCoverResponse carries the public URL of the stored image
type UploadCoverResponse struct {
	URL string `json:"url"`
}

// UploadCover stores a novel cover image
// @Summary      Upload a cover image
// @Description  Accepts a base64 data URL of at most 2,500,000 decoded bytes
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Param        request body UploadCoverRequest true "Cover image"
// @Success      200 {object} UploadCoverResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid data URL"
// @Failure      401 {object} httputil.ErrorResponse "Not signed in"
// @Failure      413 {object} httputil.ErrorResponse "Image too large"
// @Router       /api/upload-cover [post]
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req UploadCoverRequest
	if err := httputil.DecodeJSON(w, r, MaxUploadBodyBytes, &req); err != nil {
		logger.Warn("invalid upload body", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "cover." + defaultExtension
	}

	url, err := h.service.UploadCover(r.Context(), userID, req.DataURL, filename)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDataURL):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidDataURL, http.StatusBadRequest)
		case errors.Is(err, ErrCoverTooLarge):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeCoverTooLarge, http.StatusRequestEntityTooLarge)
		default:
			logger.Error("failed to upload cover", "user_id", userID, "error", err)
			httputil.RespondInternalError(w, "failed to upload cover")
		}
		return
	}

	httputil.RespondJSON(w, UploadCoverResponse{URL: url}, http.StatusOK)
}
