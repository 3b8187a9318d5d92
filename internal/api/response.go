package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lostfound/registry/internal/lostfound"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a {"detail": message} error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Token")
	}
	jsonResponse(w, status, map[string]string{"detail": message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind lostfound.Kind) int {
	switch kind {
	case lostfound.KindValidation, lostfound.KindConflict:
		return http.StatusBadRequest
	case lostfound.KindAuthentication:
		return http.StatusUnauthorized
	case lostfound.KindAuthorization:
		return http.StatusForbidden
	case lostfound.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err. Request errors keep their message; anything else
// is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorStatus(w, r, err, 0)
}

// writeErrorStatus is writeError with an optional status override for
// request errors.
func writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	var e *lostfound.Error
	if !errors.As(err, &e) {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if status == 0 {
		status = statusFor(e.Kind)
	}
	if len(e.Fields) > 0 {
		jsonResponse(w, status, e.Fields)
		return
	}
	jsonError(w, status, e.Detail)
}
