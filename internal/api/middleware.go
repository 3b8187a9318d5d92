package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/lostfound"
)

// Authenticator resolves a token key to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (auth.Identity, error)
}

// TokenMiddleware attaches the caller's identity to the request context.
// Requests without an Authorization header proceed anonymously; a malformed
// header or unknown token is rejected.
func TokenMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, present, err := auth.ParseAuthorization(r.Header.Get("Authorization"))
			if err != nil {
				jsonError(w, http.StatusUnauthorized, lostfound.MsgInvalidToken)
				return
			}
			if !present {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), auth.Anonymous)))
				return
			}

			id, err := authn.Authenticate(r.Context(), key)
			if err != nil {
				writeError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"remote", r.RemoteAddr,
		)
	})
}
