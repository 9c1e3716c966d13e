package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/repository"
)

// PromptHandler handles prompt CRUD requests
type PromptHandler struct {
	promptRepo *repository.PromptRepository
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(promptRepo *repository.PromptRepository) *PromptHandler {
	return &PromptHandler{promptRepo: promptRepo}
}

type promptRequest struct {
	Title       string                `json:"title"`
	Prompt      string                `json:"prompt"`
	PersonCount int                   `json:"person_count"`
	Category    *models.MediaCategory `json:"category"`
}

// List handles GET /api/prompts with an optional category filter
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	var category *models.MediaCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := models.MediaCategory(raw)
		if c.IsValid() {
			category = &c
		}
	}

	prompts, err := h.promptRepo.List(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list prompts")
		respondError(w, "Failed to list prompts", http.StatusInternalServerError)
		return
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}

	respondJSON(w, prompts, http.StatusOK)
}

// Get handles GET /api/prompts/{id}
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	prompt, err := h.promptRepo.GetByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "Prompt not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("prompt_id", id).Msg("Failed to get prompt")
		respondError(w, "Failed to get prompt", http.StatusInternalServerError)
		return
	}

	respondJSON(w, prompt, http.StatusOK)
}

// Create handles POST /api/prompts
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	prompt := &models.Prompt{
		Title:       req.Title,
		Prompt:      req.Prompt,
		PersonCount: req.PersonCount,
		Category:    req.Category,
	}
	if err := h.promptRepo.Create(r.Context(), prompt); err != nil {
		log.Error().Err(err).Msg("Failed to create prompt")
		respondError(w, "Failed to create prompt", http.StatusInternalServerError)
		return
	}

	respondJSON(w, prompt, http.StatusCreated)
}

// Update handles PUT /api/prompts/{id}
func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	prompt, err := h.promptRepo.GetByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "Prompt not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("prompt_id", id).Msg("Failed to get prompt")
		respondError(w, "Failed to update prompt", http.StatusInternalServerError)
		return
	}

	prompt.Title = req.Title
	prompt.Prompt = req.Prompt
	prompt.PersonCount = req.PersonCount
	prompt.Category = req.Category

	if err := h.promptRepo.Update(r.Context(), prompt); err != nil {
		log.Error().Err(err).Int64("prompt_id", id).Msg("Failed to update prompt")
		respondError(w, "Failed to update prompt", http.StatusInternalServerError)
		return
	}

	respondJSON(w, prompt, http.StatusOK)
}

// Delete handles DELETE /api/prompts/{id}
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	if err := h.promptRepo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "Prompt not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("prompt_id", id).Msg("Failed to delete prompt")
		respondError(w, "Failed to delete prompt", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptHandler) decode(w http.ResponseWriter, r *http.Request) (*promptRequest, bool) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Title == "" || req.Prompt == "" {
		respondError(w, "title and prompt are required", http.StatusBadRequest)
		return nil, false
	}
	if req.Category != nil && !req.Category.IsValid() {
		respondError(w, "Invalid category", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}
