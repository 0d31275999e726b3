package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/store"
	"github.com/alok/blog/internal/web"
)

const (
	maxAvatarBytes = 2 << 20
	activityLimit  = 10
)

// AccountStore is the user persistence the account page needs.
type AccountStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	SetImageFile(ctx context.Context, userID int64, imageFile string) (string, error)
}

// FileStore defines the interface for avatar object storage.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, int64, error)
	Remove(ctx context.Context, key string) error
}

// ActivityStore lists a user's recent post activity.
type ActivityStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
}

// Handler holds auth and account HTTP handlers.
type Handler struct {
	auth     *Authenticator
	accounts AccountStore
	sessions *SessionStore
	remember *RememberTokens
	cookies  Cookies
	avatars  FileStore
	activity ActivityStore
	render   *web.Renderer
}

// HandlerConfig lists the collaborators of Handler.
type HandlerConfig struct {
	Auth     *Authenticator
	Accounts AccountStore
	Sessions *SessionStore
	Remember *RememberTokens
	Cookies  Cookies
	Avatars  FileStore
	Activity ActivityStore
	Render   *web.Renderer
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		auth:     cfg.Auth,
		accounts: cfg.Accounts,
		sessions: cfg.Sessions,
		remember: cfg.Remember,
		cookies:  cfg.Cookies,
		avatars:  cfg.Avatars,
		activity: cfg.Activity,
		render:   cfg.Render,
	}
}

// Login shows the login form and authenticates a submitted one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentIdentity(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	form := &models.LoginForm{}
	data := &web.PageData{Title: "Login", Form: form}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "login.html", data)
		return
	}

	if err := web.DecodeForm(r, form); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}
	if err := web.Validate(form); err != nil {
		if !errors.As(err, &data.Errors) {
			h.render.ServerError(w, r, err)
			return
		}
		h.render.Render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}

	id, err := h.auth.Authenticate(r.Context(), form.Email, form.Password)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadCredential) {
		data.Flashes = []web.Flash{{Category: web.FlashDanger, Message: "Login Unsuccessful. Please check email and password"}}
		h.render.Render(w, r, http.StatusOK, "login.html", data)
		return
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	if err := h.startSession(w, r, id.UserID, form.Remember); err != nil {
		h.render.ServerError(w, r, err)
		return
	}
	log.Printf("user %s logged in", id.Username)

	next := r.URL.Query().Get("next")
	if !isLocalPath(next) {
		next = "/home"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64, remember bool) error {
	sid, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		return err
	}
	h.cookies.SetSession(w, sid)

	if remember {
		token, err := h.remember.Issue(userID)
		if err != nil {
			return err
		}
		h.cookies.SetRemember(w, token)
	}
	return nil
}

// isLocalPath accepts only same-site absolute paths as redirect targets.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Printf("logout: %v", err)
		}
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// Register shows the sign-up form and creates the account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentIdentity(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	form := &models.RegisterForm{}
	data := &web.PageData{Title: "Register", Form: form}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "register.html", data)
		return
	}

	if err := web.DecodeForm(r, form); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "register.html", data)
		return
	}

	user, err := h.auth.Register(r.Context(), form)
	if errors.As(err, &data.Errors) {
		h.render.Render(w, r, http.StatusBadRequest, "register.html", data)
		return
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	log.Printf("account created for %s", user.Username)
	web.AddFlash(w, r, web.FlashSuccess, fmt.Sprintf("Account created for %s! You are now able to log in", user.Username))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Account shows the current user's profile and recent activity; a POST
// replaces the profile picture.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	id, ok := CurrentIdentity(r.Context())
	if !ok {
		http.Redirect(w, r, "/login?next=/account", http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	data := &web.PageData{Title: "Account", Identity: id}
	if r.Method == http.MethodPost {
		err := h.updateAvatar(w, r, id)
		if err == nil {
			web.AddFlash(w, r, web.FlashSuccess, "Your account has been updated!")
			http.Redirect(w, r, "/account", http.StatusSeeOther)
			return
		}
		if !errors.As(err, &data.Errors) {
			h.render.ServerError(w, r, err)
			return
		}
		status = http.StatusBadRequest
	}

	user, err := h.accounts.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}
	data.User = user

	activity, err := h.activity.ListByUser(r.Context(), id.UserID, activityLimit)
	if err != nil {
		log.Printf("account activity for %s: %v", id.Username, err)
	}
	data.Activity = activity

	h.render.Render(w, r, status, "account.html", data)
}

var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func (h *Handler) updateAvatar(w http.ResponseWriter, r *http.Request, id *models.Identity) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+(64<<10))
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		return web.FormErrors{"picture": {"File must be an image no larger than 2 MB."}}
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		return web.FormErrors{"picture": {"This field is required."}}
	}
	defer file.Close()
	if header.Size > maxAvatarBytes {
		return web.FormErrors{"picture": {"File must be an image no larger than 2 MB."}}
	}

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	ext, ok := avatarTypes[http.DetectContentType(sniff[:n])]
	if !ok {
		return web.FormErrors{"picture": {"File does not have an approved extension: jpg, png"}}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	key := "avatars/" + uuid.New().String() + ext
	if err := h.avatars.Upload(r.Context(), key, file, header.Size, http.DetectContentType(sniff[:n])); err != nil {
		return err
	}

	previous, err := h.accounts.SetImageFile(r.Context(), id.UserID, key)
	if err != nil {
		if rmErr := h.avatars.Remove(r.Context(), key); rmErr != nil {
			log.Printf("remove orphan avatar %s: %v", key, rmErr)
		}
		return err
	}
	if previous != models.DefaultImageFile && previous != key {
		if err := h.avatars.Remove(r.Context(), previous); err != nil {
			log.Printf("remove old avatar %s: %v", previous, err)
		}
	}
	return nil
}

// Avatar streams an uploaded profile picture.
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	name := path.Base(chi.URLParam(r, "name"))
	if name == "." || name == "/" {
		h.render.NotFound(w, r)
		return
	}

	obj, contentType, size, err := h.avatars.Open(r.Context(), "avatars/"+name)
	if errors.Is(err, store.ErrNotFound) {
		h.render.NotFound(w, r)
		return
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("avatar %s: %v", name, err)
	}
}
