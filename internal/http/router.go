package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/config"
	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/novel"
	"github.com/redmonkez12/novelverse/internal/upload"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Novels         *novel.Handler
	Uploads        *upload.Handler
	// UploadsDir is served at /uploads/* when covers are stored locally
	UploadsDir string
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	if h.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", serveUploads(http.Dir(h.UploadsDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.Auth.Verification == config.VerificationCode {
				r.Post("/request-code", h.Auth.RequestCode)
			}
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})

		r.Get("/novels", h.Novels.List)
		r.Get("/novels/{id}", h.Novels.Get)
		r.Get("/novels/{id}/chapters/{index}", h.Novels.GetChapter)

		// Protected routes (require a session)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware.RequireAuth)
			r.Post("/novels", h.Novels.Create)
			r.Post("/novels/{id}/like", h.Novels.ToggleLike)
			r.Post("/upload-cover", h.Uploads.UploadCover)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondErrorWithCode(w, "route not found", httputil.CodeRouteNotFound, http.StatusNotFound)
}

// serveUploads serves stored files only; directories answer 404 instead of a listing
func serveUploads(root http.FileSystem) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(r.URL.Path)
		if err != nil {
			handleNotFound(w, r)
			return
		}
		info, err := f.Stat()
		f.Close()
		if err != nil || info.IsDir() {
			handleNotFound(w, r)
			return
		}

		files.ServeHTTP(w, r)
	})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.RespondErrorWithCode(w, "method not allowed", httputil.CodeMethodNotAllowed, http.StatusMethodNotAllowed)
}
