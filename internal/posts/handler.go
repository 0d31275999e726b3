package posts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alok/blog/internal/auth"
	"github.com/alok/blog/internal/middleware"
	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/web"
)

// Handler holds the HTML post handlers.
type Handler struct {
	service *Service
	render  *web.Renderer
}

func NewHandler(service *Service, render *web.Renderer) *Handler {
	return &Handler{service: service, render: render}
}

// Routes registers the page routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/home", h.Home)
	r.Get("/about", h.About)
	r.Get("/post/{id}", h.Show)
	r.Get("/user/{username}", h.UserPosts)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/post/new", h.New)
		r.Post("/post/new", h.New)
		r.Get("/post/{id}/update", h.Update)
		r.Post("/post/{id}/update", h.Update)
		r.Post("/post/{id}/delete", h.Delete)
	})
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// fail maps service errors onto error pages.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.render.NotFound(w, r)
	case errors.Is(err, ErrForbidden):
		h.render.Forbidden(w, r)
	case errors.Is(err, ErrConflict):
		h.render.Conflict(w, r)
	case errors.Is(err, ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		h.render.ServerError(w, r, err)
	}
}

// Home lists every post, newest first.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	page, _, err := h.service.List(r.Context(), pageParam(r), "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "home.html", &web.PageData{
		Title: "Home Page", Posts: page, PageURL: "/home",
	})
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "about.html", &web.PageData{Title: "About"})
}

// UserPosts lists the posts of one author.
func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, user, err := h.service.List(r.Context(), pageParam(r), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "user_posts.html", &web.PageData{
		Title: username, Posts: page, User: user, PageURL: "/user/" + username,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.render.NotFound(w, r)
		return
	}
	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "post.html", &web.PageData{Title: post.Title, Post: post})
}

// New shows and handles the create form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.CurrentIdentity(r.Context())
	form := &models.PostForm{}
	data := &web.PageData{Title: "New Post", Legend: "New Post", Form: form}

	if r.Method == http.MethodPost {
		if err := web.DecodeForm(r, form); err != nil {
			h.render.Render(w, r, http.StatusBadRequest, "create_post.html", data)
			return
		}
		_, err := h.service.Create(r.Context(), identity, form)
		if err == nil {
			web.AddFlash(w, r, web.FlashSuccess, "Your post has been created!")
			http.Redirect(w, r, "/home", http.StatusSeeOther)
			return
		}
		if !errors.As(err, &data.Errors) {
			h.fail(w, r, err)
			return
		}
		h.render.Render(w, r, http.StatusBadRequest, "create_post.html", data)
		return
	}
	h.render.Render(w, r, http.StatusOK, "create_post.html", data)
}

// Update shows the edit form prefilled and applies submitted changes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.render.NotFound(w, r)
		return
	}
	identity, _ := auth.CurrentIdentity(r.Context())

	if r.Method != http.MethodPost {
		post, err := h.service.Editable(r.Context(), identity, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render.Render(w, r, http.StatusOK, "create_post.html", &web.PageData{
			Title:  "Update Post",
			Legend: "Update Post",
			Form:   &models.PostForm{Title: post.Title, Content: post.Content, Version: post.Version},
		})
		return
	}

	form := &models.PostForm{}
	data := &web.PageData{Title: "Update Post", Legend: "Update Post", Form: form}
	if err := web.DecodeForm(r, form); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "create_post.html", data)
		return
	}
	_, err := h.service.Update(r.Context(), identity, id, form)
	if err == nil {
		web.AddFlash(w, r, web.FlashSuccess, "Your post has been updated!")
		http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)
		return
	}
	if !errors.As(err, &data.Errors) {
		h.fail(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusBadRequest, "create_post.html", data)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.render.NotFound(w, r)
		return
	}
	identity, _ := auth.CurrentIdentity(r.Context())

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.fail(w, r, err)
		return
	}
	web.AddFlash(w, r, web.FlashSuccess, "Your post has been deleted!")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}
