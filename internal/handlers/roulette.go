package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/repository"
	"photobooth-backend/internal/services"
)

// RouletteHandler handles roulette requests
type RouletteHandler struct {
	rouletteService *services.RouletteService
}

// NewRouletteHandler creates a new roulette handler
func NewRouletteHandler(rouletteService *services.RouletteService) *RouletteHandler {
	return &RouletteHandler{rouletteService: rouletteService}
}

// Spin handles POST /api/roulette/spin
func (h *RouletteHandler) Spin(w http.ResponseWriter, r *http.Request) {
	result, err := h.rouletteService.Spin(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to spin roulette")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// Current handles GET /api/roulette/current
func (h *RouletteHandler) Current(w http.ResponseWriter, r *http.Request) {
	result, err := h.rouletteService.Current(r.Context())
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "No active result found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Failed to get current roulette result")
		respondError(w, "Failed to get current result", http.StatusInternalServerError)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// Categories handles GET /api/roulette/categories
func (h *RouletteHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.rouletteService.AvailableCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list roulette categories")
		respondError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.RouletteCategory{}
	}
	respondJSON(w, categories, http.StatusOK)
}

// Prompts handles GET /api/roulette/prompts
func (h *RouletteHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.rouletteService.Prompts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list roulette prompts")
		respondError(w, "Failed to list prompts", http.StatusInternalServerError)
		return
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	respondJSON(w, prompts, http.StatusOK)
}

// SpinPrompts handles POST /api/roulette/spin-prompts
func (h *RouletteHandler) SpinPrompts(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.rouletteService.SpinPrompts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to spin prompts")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, prompt, http.StatusOK)
}

type drawPromptRequest struct {
	Category models.MediaCategory `json:"category"`
}

// DrawPrompt handles POST /api/roulette/draw-prompt
func (h *RouletteHandler) DrawPrompt(w http.ResponseWriter, r *http.Request) {
	var req drawPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Category.IsValid() {
		respondError(w, "Invalid or missing category", http.StatusBadRequest)
		return
	}

	prompt, err := h.rouletteService.DrawPrompt(r.Context(), req.Category)
	if err != nil {
		log.Error().Err(err).Str("category", string(req.Category)).Msg("Failed to draw prompt")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, prompt, http.StatusOK)
}

// DrawRandomPrompt handles POST /api/roulette/draw-random-prompt
func (h *RouletteHandler) DrawRandomPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.rouletteService.SpinPrompts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to draw random prompt")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, prompt, http.StatusOK)
}
