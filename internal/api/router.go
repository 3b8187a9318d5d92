package api

import (
	"net/http"
)

// Options configures the API router.
type Options struct {
	// MediaURL is the public path prefix of stored photos, e.g. "/media/".
	MediaURL string
	// BaseURL overrides the scheme and host used in absolute links.
	BaseURL        string
	MaxUploadBytes int64
}

// Service is everything the API needs from the registry.
type Service interface {
	Accounts
	Registry
	Authenticator
}

// NewRouter creates the API router with all endpoints registered. Paths are
// relative to the API mount point.
func NewRouter(svc Service, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if opts.MediaURL == "" {
		opts.MediaURL = "/media/"
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{Accounts: svc, MaxUploadBytes: opts.MaxUploadBytes}
	itemsHandler := &ItemsHandler{
		Registry:       svc,
		MediaURL:       opts.MediaURL,
		BaseURL:        opts.BaseURL,
		MaxUploadBytes: opts.MaxUploadBytes,
	}

	// Public: token endpoints.
	mux.HandleFunc("POST /register/{$}", authHandler.Register)
	mux.HandleFunc("POST /login/{$}", authHandler.Login)

	// Items: read (anyone), create (authenticated), claimed update (staff).
	mux.HandleFunc("GET /{$}", itemsHandler.List)
	mux.HandleFunc("POST /{$}", itemsHandler.Create)
	mux.HandleFunc("GET /{id}/{$}", itemsHandler.Get)
	mux.HandleFunc("PUT /{id}/{$}", itemsHandler.Update)
	mux.HandleFunc("PATCH /{id}/{$}", itemsHandler.Update)

	return TokenMiddleware(svc)(mux)
}
