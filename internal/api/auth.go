package api

import (
	"context"
	"net/http"

	"github.com/lostfound/registry/internal/lostfound"
)

// Accounts registers users and exchanges credentials for tokens.
type Accounts interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles the token endpoints.
type AuthHandler struct {
	Accounts       Accounts
	MaxUploadBytes int64
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /register/.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r, h.MaxUploadBytes)
	if err != nil {
		writeFormError(w, r, err)
		return
	}

	token, err := h.Accounts.Register(r.Context(), form.string("username"), form.string("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}

// Login handles POST /login/. Bad credentials are a 400, not a 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r, h.MaxUploadBytes)
	if err != nil {
		writeFormError(w, r, err)
		return
	}

	token, err := h.Accounts.Login(r.Context(), form.string("username"), form.string("password"))
	if err != nil {
		status := 0
		if lostfound.KindOf(err) == lostfound.KindAuthentication {
			status = http.StatusBadRequest
		}
		writeErrorStatus(w, r, err, status)
		return
	}

	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}
