package middleware

import (
	"crypto/sha256"
	"log"
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRF rejects unsafe requests whose form token does not match the csrf
// cookie. The signing key is derived from secret. Without secure the site
// is assumed to run over plain HTTP and the Referer check is skipped.
func CSRF(secret string, secure bool, onFail http.HandlerFunc) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + secret))
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
	}
	if onFail != nil {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("csrf %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
			onFail(w, r)
		})))
	}
	protect := csrf.Protect(key[:], opts...)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
