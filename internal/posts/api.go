package posts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiResponse is the envelope of every JSON feed response.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *apiMeta    `json:"meta,omitempty"`
}

type apiMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// APIRoutes returns the read-only JSON feed.
func (h *Handler) APIRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListJSON)
	r.Get("/{id}", h.GetJSON)
	return r
}

// ListJSON handles GET /api/posts?page=&author=
func (h *Handler) ListJSON(w http.ResponseWriter, r *http.Request) {
	page, _, err := h.service.List(r.Context(), pageParam(r), r.URL.Query().Get("author"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiResponse{Error: "author not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: "failed to list posts"})
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Data:    page.Items,
		Meta: &apiMeta{
			Page:       page.Number,
			PerPage:    page.PerPage,
			Total:      page.Total,
			TotalPages: page.Pages(),
		},
	})
}

// GetJSON handles GET /api/posts/{id}
func (h *Handler) GetJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiResponse{Error: "post not found"})
		return
	}

	post, err := h.service.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiResponse{Error: "post not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: "failed to get post"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: post})
}
