package auth

import (
	"net/http"
	"time"
)

// Cookies writes and clears the session and remember-me cookies.
type Cookies struct {
	Secure bool
}

func (c Cookies) SetSession(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
}

func (c Cookies) SetRemember(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(RememberTTL / time.Second),
	})
}

// Clear expires both cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{SessionCookie, RememberCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   c.Secure,
			MaxAge:   -1,
		})
	}
}
