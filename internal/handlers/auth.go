package handlers

import (
	"encoding/json"
	"net/http"

	"photobooth-backend/internal/config"
)

// AuthHandler exchanges the admin password for the static access token
type AuthHandler struct {
	cfg config.AuthConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Password == "" {
		respondError(w, "Password is required.", http.StatusBadRequest)
		return
	}

	if req.Password != h.cfg.AdminPassword {
		respondError(w, "Invalid password.", http.StatusUnauthorized)
		return
	}

	respondJSON(w, loginResponse{
		Token:   h.cfg.AdminToken,
		Message: "Login successful",
	}, http.StatusOK)
}
