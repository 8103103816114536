package sentry

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	apperrors "github.com/chefdigital/chef/internal/errors"
)

// HTTPMiddleware puts a per-request hub on the context and turns handler panics
// into a reported INTERNAL_ERROR response.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetRequest(r)
			scope.SetTag("http.method", r.Method)
			scope.SetTag("http.path", r.URL.Path)
		})
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			hub.RecoverWithContext(ctx, rec)
			slog.ErrorContext(ctx, "Handler panicked", "path", r.URL.Path, "panic", rec)
			if wrapped.wroteHeader {
				return
			}
			appErr := apperrors.NewInternalError("Internal server error", "PANIC", nil)
			wrapped.Header().Set("Content-Type", "application/json")
			wrapped.WriteHeader(appErr.StatusCode)
			json.NewEncoder(wrapped).Encode(appErr)
		}()

		next.ServeHTTP(wrapped, r.WithContext(ctx))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
