package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func protectedEndpoint(wrap func(http.Handler) http.Handler) http.Handler {
	return wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAdmin(t *testing.T) {
	tokens := Tokens{Admin: "admin-secret", Upload: "upload-secret"}
	handler := protectedEndpoint(tokens.RequireAdmin)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"upload token rejected", "Bearer upload-secret", http.StatusUnauthorized},
		{"admin token", "Bearer admin-secret", http.StatusOK},
		{"bare token without prefix", "admin-secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireAny(t *testing.T) {
	tokens := Tokens{Admin: "admin-secret", Upload: "upload-secret"}
	handler := protectedEndpoint(tokens.RequireAny)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"upload token accepted", "Bearer upload-secret", http.StatusOK},
		{"admin token accepted", "Bearer admin-secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestEmptyConfiguredTokenNeverMatches(t *testing.T) {
	tokens := Tokens{Admin: "admin-secret"}
	handler := protectedEndpoint(tokens.RequireAny)

	// With no upload token configured, an empty bearer value must not
	// slip through the comparison.
	rec := doRequest(handler, "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
