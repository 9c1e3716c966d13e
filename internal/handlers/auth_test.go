package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth-backend/internal/config"
)

func TestAuthHandler_Login(t *testing.T) {
	handler := NewAuthHandler(config.AuthConfig{
		AdminPassword: "let-me-in",
		AdminToken:    "admin-token",
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	t.Run("returns token for the correct password", func(t *testing.T) {
		rec := post(`{"password":"let-me-in"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "admin-token", resp.Token)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		rec := post(`{"password":"guess"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires a password", func(t *testing.T) {
		rec := post(`{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		rec := post(`not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
