package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logging logs every HTTP request to logger once it has been served.
// It logs the method, path, status, duration, request ID and user ID.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The auth middleware runs inside this one, so the user ID is
			// read from the request it hands down.
			var userID int64
			next.ServeHTTP(ww, r.WithContext(withUserSink(r.Context(), &userID)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"request_id", chimiddleware.GetReqID(r.Context()),
				"user_id", userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP request failed", attrs...)
			case status >= http.StatusBadRequest:
				logger.Warn("HTTP request rejected", attrs...)
			default:
				logger.Info("HTTP request ok", attrs...)
			}
		})
	}
}
