package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Tokens holds the static access tokens. The admin token grants all
// protected routes; the upload token only the original-photo surface.
type Tokens struct {
	Admin  string
	Upload string
}

// RequireAdmin accepts only the admin token
func (t Tokens) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondUnauthorized(w, "Access denied. No token provided.")
			return
		}
		if !tokenEqual(token, t.Admin) {
			respondUnauthorized(w, "Access denied. Invalid token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny accepts the admin token or the upload-only token
func (t Tokens) RequireAny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondUnauthorized(w, "Access denied. No token provided.")
			return
		}
		if !tokenEqual(token, t.Admin) && !tokenEqual(token, t.Upload) {
			respondUnauthorized(w, "Access denied. Invalid token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header. A bare
// token without the Bearer prefix is accepted as well.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), true
	}
	return header, true
}

func tokenEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
