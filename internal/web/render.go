package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/alok/blog/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is everything a page template may read.
type PageData struct {
	Title     string
	Identity  *models.Identity
	Flashes   []Flash
	CSRFField template.HTML

	Form   any
	Errors FormErrors
	Legend string

	Post     *models.Post
	Posts    *models.Page
	PageURL  string
	User     *models.User
	Activity []models.Activity

	Status  int
	Message string
}

// IdentityFunc reports the identity bound to a request context.
type IdentityFunc func(ctx context.Context) (*models.Identity, bool)

// Renderer executes the embedded page templates.
type Renderer struct {
	pages    map[string]*template.Template
	identity IdentityFunc
}

var functions = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"avatar": AvatarURL,
}

// AvatarURL maps a stored image_file value to the path serving it.
func AvatarURL(imageFile string) string {
	if imageFile == "" || imageFile == models.DefaultImageFile {
		return "/static/" + models.DefaultImageFile
	}
	return "/" + strings.TrimPrefix(imageFile, "/")
}

func NewRenderer(identity IdentityFunc) (*Renderer, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := map[string]*template.Template{}
	for _, path := range entries {
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" {
			continue
		}
		ts, err := template.New(name).Funcs(functions).ParseFS(templateFS, "templates/layout.html", path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = ts
	}
	return &Renderer{pages: pages, identity: identity}, nil
}

// Render writes page with status. Identity and pending flashes are filled
// in from the request.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	if data.Identity == nil && rd.identity != nil {
		data.Identity, _ = rd.identity(r.Context())
	}
	data.Flashes = append(PopFlashes(w, r), data.Flashes...)
	data.CSRFField = csrf.TemplateField(r)

	ts, ok := rd.pages[page]
	if !ok {
		rd.ServerError(w, r, fmt.Errorf("template %q not found", page))
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		rd.ServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, "error.html", &PageData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.errorPage(w, r, http.StatusNotFound, "That page does not exist. Please try a different location.")
}

func (rd *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.errorPage(w, r, http.StatusForbidden, "You don't have permission to do that (please check your account and try again).")
}

func (rd *Renderer) Conflict(w http.ResponseWriter, r *http.Request) {
	rd.errorPage(w, r, http.StatusConflict, "This post was changed by someone else while you were editing it. Please reload and try again.")
}

// ServerError logs err with a stack trace and shows the generic error page.
// It never goes through the template set when rendering itself failed.
func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("ERROR %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())

	ts, ok := rd.pages["error.html"]
	if ok {
		buf := new(bytes.Buffer)
		data := &PageData{
			Title:   "Internal Server Error",
			Status:  http.StatusInternalServerError,
			Message: "We're experiencing some trouble on our end. Please try again in the near future.",
		}
		if rd.identity != nil {
			data.Identity, _ = rd.identity(r.Context())
		}
		if ts.ExecuteTemplate(buf, "base", data) == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			buf.WriteTo(w)
			return
		}
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Static serves the embedded css and default avatar under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
