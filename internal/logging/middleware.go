package logging

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// LoggerContextKey holds a plain *Logger placed with WithContext
	LoggerContextKey ContextKey = "logger"
	// scopeContextKey holds the *requestScope installed by RequestLogger
	scopeContextKey ContextKey = "log_scope"
)

// requestScope is the logger shared by every layer serving one request.
// Fields added by inner layers show up on the completion line too.
type requestScope struct {
	mu     sync.Mutex
	logger *Logger
}

func (s *requestScope) current() *Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

func (s *requestScope) add(fields map[string]any) {
	s.mu.Lock()
	s.logger = s.logger.WithFields(fields)
	s.mu.Unlock()
}

// statusRecorder captures what the handler sent back
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.status = statusCode
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// RequestLogger emits one completion line per request with the matched chi
// route, status, response size and duration.
func RequestLogger(logger *Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scope := &requestScope{logger: logger.WithFields(map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote_ip":  r.RemoteAddr,
			})}
			scope.logger.Debug("request started")

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), scopeContextKey, scope)))

			attrs := []any{
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					attrs = append(attrs, "route", pattern)
				}
			}

			scope.current().Log(r.Context(), levelForStatus(rec.status), "request completed", attrs...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// AddFields attaches fields to the logger of the request behind ctx. Log
// lines written afterwards carry them, the completion line included.
// Outside RequestLogger it does nothing.
func AddFields(ctx context.Context, fields map[string]any) {
	if scope, ok := ctx.Value(scopeContextKey).(*requestScope); ok {
		scope.add(fields)
	}
}

// GetLoggerFromContext retrieves the logger from the request context
func GetLoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	if scope, ok := ctx.Value(scopeContextKey).(*requestScope); ok {
		return scope.current()
	}
	// Fallback to a default logger if not found
	return NewLogger(true)
}
