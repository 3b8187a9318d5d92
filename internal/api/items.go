package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/lostfound"
	"github.com/lostfound/registry/internal/model"
)

// Registry is the item side of the registry service.
type Registry interface {
	ListItems(ctx context.Context, page int) (*lostfound.Page, error)
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	CreateItem(ctx context.Context, caller auth.Identity, in lostfound.ItemInput) (*model.Item, error)
	SetClaimed(ctx context.Context, caller auth.Identity, id int64, value any) (*model.Item, error)
}

// ItemsHandler handles the item endpoints.
type ItemsHandler struct {
	Registry       Registry
	MediaURL       string
	BaseURL        string
	MaxUploadBytes int64
}

type itemView struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	UserName    string    `json:"user_name"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	DateFound   string    `json:"date_found"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	Claimed     bool      `json:"claimed"`
}

type pageView struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []itemView `json:"results"`
}

func (h *ItemsHandler) view(r *http.Request, item *model.Item) itemView {
	v := itemView{
		ID:          item.ID,
		UUID:        item.UUID.String(),
		UserName:    item.UserName,
		Name:        item.Name,
		Category:    item.Category,
		Description: item.Description,
		DateFound:   item.DateFound,
		CreatedAt:   item.CreatedAt,
		Claimed:     item.Claimed,
	}
	if item.Image != "" {
		u := origin(r, h.BaseURL) + h.MediaURL + item.Image
		v.Image = &u
	}
	return v
}

// List handles GET /.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonError(w, http.StatusNotFound, lostfound.MsgInvalidPage)
			return
		}
		page = n
	}

	p, err := h.Registry.ListItems(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := pageView{Count: p.Count, Results: make([]itemView, 0, len(p.Items))}
	for i := range p.Items {
		resp.Results = append(resp.Results, h.view(r, &p.Items[i]))
	}
	if p.HasNext {
		resp.Next = pageLink(r, h.BaseURL, p.Number+1)
	}
	if p.HasPrevious {
		resp.Previous = pageLink(r, h.BaseURL, p.Number-1)
	}

	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r, h.MaxUploadBytes)
	if err != nil {
		writeFormError(w, r, err)
		return
	}

	in := lostfound.ItemInput{
		Name:        form.string("name"),
		Category:    form.string("category"),
		Description: form.string("description"),
		DateFound:   form.string("date_found"),
	}

	file, ok, err := form.file("image")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		defer file.Close()
		in.Image = file
	}

	item, err := h.Registry.CreateItem(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, h.view(r, item))
}

// Get handles GET /{id}/.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, lostfound.MsgNotFound)
		return
	}

	item, err := h.Registry.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, h.view(r, item))
}

// Update handles PUT and PATCH /{id}/. Only the claimed flag is writable.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if !caller.Authenticated() {
		jsonError(w, http.StatusUnauthorized, lostfound.MsgNotAuthenticated)
		return
	}

	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, lostfound.MsgNotFound)
		return
	}

	form, err := readForm(w, r, h.MaxUploadBytes)
	if err != nil {
		writeFormError(w, r, err)
		return
	}

	value, _ := form.value("claimed")
	item, err := h.Registry.SetClaimed(r.Context(), caller, id, value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, h.view(r, item))
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// origin returns the scheme and host clients reach the API under.
func origin(r *http.Request, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// pageLink returns the absolute URL of the given listing page. Page 1 is
// linked without a page parameter.
func pageLink(r *http.Request, baseURL string, page int) *string {
	u, err := url.ParseRequestURI(r.RequestURI)
	if err != nil || r.RequestURI == "" {
		copied := *r.URL
		u = &copied
	}

	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	link := origin(r, baseURL) + u.Path
	if encoded := q.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}
