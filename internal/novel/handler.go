package novel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
)

// MaxCreateBodyBytes leaves room for long chapter bodies
const MaxCreateBodyBytes int64 = 3_500_000

// Handler contains HTTP handlers for novel endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateNovelRequest represents the novel creation body
type CreateNovelRequest struct {
	Title    string    `json:"title"`
	Synopsis string    `json:"synopsis"`
	CoverURL *string   `json:"coverUrl"`
	Tags     []string  `json:"tags"`
	Chapters []Chapter `json:"chapters"`
}

// CreateNovelResponse carries the new novel's id
type CreateNovelResponse struct {
	ID uuid.UUID `json:"id"`
}

// ListResponse wraps the novel list
type ListResponse struct {
	Novels []*Novel `json:"novels"`
}

// NovelResponse wraps a single novel
type NovelResponse struct {
	Novel *Novel `json:"novel"`
}

// List returns all novels
// @Summary      List novels
// @Description  All novels, most recently updated first, with author email and like count
// @Tags         novels
// @Produce      json
// @Success      200 {object} ListResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/novels [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	novels, err := h.service.List(r.Context())
	if err != nil {
		logger.Error("failed to list novels", "error", err)
		httputil.RespondInternalError(w, "failed to list novels")
		return
	}

	httputil.RespondJSON(w, ListResponse{Novels: novels}, http.StatusOK)
}

// Create publishes a novel for the signed-in user
// @Summary      Create a novel
// @Description  Blank-body chapters are dropped; at least one must remain. Tags are trimmed and capped at 12.
// @Tags         novels
// @Accept       json
// @Produce      json
// @Param        request body CreateNovelRequest true "Novel"
// @Success      200 {object} CreateNovelResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing title or chapters"
// @Failure      401 {object} httputil.ErrorResponse "Not signed in"
// @Failure      413 {object} httputil.ErrorResponse "Body too large"
// @Router       /api/novels [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	var req CreateNovelRequest
	if err := httputil.DecodeJSON(w, r, MaxCreateBodyBytes, &req); err != nil {
		logger.Warn("invalid novel body", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	id, err := h.service.Create(r.Context(), userID, CreateInput{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		CoverURL: req.CoverURL,
		Tags:     req.Tags,
		Chapters: req.Chapters,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeTitleRequired, http.StatusBadRequest)
		case errors.Is(err, ErrChapterRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeChapterRequired, http.StatusBadRequest)
		default:
			logger.Error("failed to create novel", "error", err)
			httputil.RespondInternalError(w, "failed to create novel")
		}
		return
	}

	logger.Info("novel created", "novel_id", id, "user_id", userID)
	httputil.RespondJSON(w, CreateNovelResponse{ID: id}, http.StatusOK)
}

// Get returns one novel
// @Summary      Get a novel
// @Tags         novels
// @Produce      json
// @Param        id path string true "Novel ID"
// @Success      200 {object} NovelResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/novels/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := novelIDParam(w, r)
	if !ok {
		return
	}

	n, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondNotFound(w)
			return
		}
		logger.Error("failed to get novel", "novel_id", id, "error", err)
		httputil.RespondInternalError(w, "failed to get novel")
		return
	}

	httputil.RespondJSON(w, NovelResponse{Novel: n}, http.StatusOK)
}

// ToggleLike likes or unlikes a novel for the signed-in user
// @Summary      Toggle like
// @Tags         novels
// @Produce      json
// @Param        id path string true "Novel ID"
// @Success      200 {object} httputil.OKResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/novels/{id}/like [post]
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	id, ok := novelIDParam(w, r)
	if !ok {
		return
	}

	liked, err := h.service.ToggleLike(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondNotFound(w)
			return
		}
		logger.Error("failed to toggle like", "novel_id", id, "error", err)
		httputil.RespondInternalError(w, "failed to toggle like")
		return
	}

	logger.Debug("like toggled", "novel_id", id, "liked", liked)
	httputil.RespondOK(w)
}

// GetChapter returns one chapter rendered for reading
// @Summary      Read a chapter
// @Description  Chapter body rendered from Markdown to HTML. Index is 0-based.
// @Tags         novels
// @Produce      json
// @Param        id    path string true "Novel ID"
// @Param        index path int    true "Chapter index"
// @Success      200 {object} RenderedChapter
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/novels/{id}/chapters/{index} [get]
func (h *Handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := novelIDParam(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httputil.RespondErrorWithCode(w, ErrChapterNotFound.Error(), httputil.CodeChapterNotFound, http.StatusNotFound)
		return
	}

	chapter, err := h.service.Chapter(r.Context(), id, index)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respondNotFound(w)
		case errors.Is(err, ErrChapterNotFound):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeChapterNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to load chapter", "novel_id", id, "error", err)
			httputil.RespondInternalError(w, "failed to load chapter")
		}
		return
	}

	httputil.RespondJSON(w, chapter, http.StatusOK)
}

// novelIDParam parses the {id} URL param. A malformed id cannot exist, so it is a 404.
func novelIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondNotFound(w)
		return uuid.Nil, false
	}
	return id, true
}

func respondNotFound(w http.ResponseWriter) {
	httputil.RespondErrorWithCode(w, ErrNotFound.Error(), httputil.CodeNovelNotFound, http.StatusNotFound)
}
