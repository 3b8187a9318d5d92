package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/lostfound/registry/internal/lostfound"
	"github.com/lostfound/registry/internal/media"
)

// BlobReader loads stored photos.
type BlobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// MediaHandler serves stored item photos.
type MediaHandler struct {
	Blobs BlobReader
}

// NewMediaRouter creates the handler for stored photos. Paths are relative
// to the media mount point.
func NewMediaRouter(blobs BlobReader) http.Handler {
	h := &MediaHandler{Blobs: blobs}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{key...}", h.Serve)
	return mux
}

// Serve handles GET /{key...}.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !media.ValidKey(key) {
		jsonError(w, http.StatusNotFound, lostfound.MsgNotFound)
		return
	}

	data, err := h.Blobs.Get(r.Context(), key)
	if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidKey) {
		jsonError(w, http.StatusNotFound, lostfound.MsgNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, path.Base(key), time.Time{}, bytes.NewReader(data))
}
