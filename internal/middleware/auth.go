package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"

	"github.com/alok/blog/internal/auth"
	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/web"
)

// UserLookup loads the user a session points at.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadIdentity resolves the session cookie (or, failing that, a valid
// remember-me cookie) into an identity on the request context. Requests
// without either pass through anonymously.
func LoadIdentity(sessions *auth.SessionStore, remember *auth.RememberTokens, users UserLookup, cookies auth.Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var userID int64
			if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
				id, err := sessions.Get(ctx, cookie.Value)
				if err != nil {
					log.Printf("session lookup: %v", err)
				}
				userID = id
			}

			if userID == 0 {
				if cookie, err := r.Cookie(auth.RememberCookie); err == nil {
					id, err := remember.Parse(cookie.Value)
					if err != nil {
						cookies.Clear(w)
					} else if sid, err := sessions.Create(ctx, id); err != nil {
						log.Printf("restore session: %v", err)
					} else {
						cookies.SetSession(w, sid)
						userID = id
					}
				}
			}

			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				log.Printf("session user %d: %v", userID, err)
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, user.Identity())))
		})
	}
}

// RequireAuth sends anonymous requests to the login page, remembering
// where they were headed.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentIdentity(r.Context()); !ok {
			w.Header().Set("Cache-Control", "no-store")
			web.AddFlash(w, r, web.FlashInfo, "Please log in to access this page.")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
