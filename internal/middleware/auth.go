package middleware

import (
	"net/http"
	"strings"
)

const (
	// AuthCookie is set by a successful login.
	AuthCookie = "authenticated"
	// LoginPage is served without authentication.
	LoginPage = "/login.html"
)

// AuthMiddleware checks whether the user is logged in (has cookie 'authenticated=true').
// With an empty password every request passes.
func AuthMiddleware(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Login page, login endpoint and static assets are always reachable
			if r.URL.Path == LoginPage ||
				r.URL.Path == "/auth/login" ||
				strings.HasPrefix(r.URL.Path, "/css/") ||
				strings.HasPrefix(r.URL.Path, "/js/") {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(AuthCookie)
			if err != nil || cookie.Value != "true" {
				// AJAX, API and socket requests get 401
				if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" ||
					r.Header.Get("Upgrade") != "" ||
					strings.HasPrefix(r.URL.Path, "/api/") {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, LoginPage, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
