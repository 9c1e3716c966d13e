package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/repository"
	"photobooth-backend/internal/services"
)

const maxUploadBytes = 10 << 20 // 10MB

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// List handles GET /api/photos
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}

	photos, total, err := h.photoService.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list photos")
		respondError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"photos": photos,
		"total":  total,
	}, http.StatusOK)
}

// ListSince handles GET /api/photos/since/{timestamp}. This is the polling
// fallback used by feed clients to pick up records they missed on the push
// channel.
func (h *PhotoHandler) ListSince(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "timestamp")
	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		respondError(w, "Invalid timestamp", http.StatusBadRequest)
		return
	}

	photos, err := h.photoService.ListSince(r.Context(), since)
	if err != nil {
		log.Error().Err(err).Time("since", since).Msg("Failed to list photos since timestamp")
		respondError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"photos": photos,
		"count":  len(photos),
	}, http.StatusOK)
}

// Generate handles POST /api/photos/generate. The prompt is chosen at
// random server-side.
func (h *PhotoHandler) Generate(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := readPhotoUpload(w, r)
	if !ok {
		return
	}

	photo, err := h.photoService.Generate(r.Context(), image, mimeType)
	if err != nil {
		if strings.Contains(err.Error(), "no prompts available") {
			respondError(w, "No prompts available", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Failed to generate photo")
		respondError(w, "Failed to generate photo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"message": "Photo generated successfully",
		"photo":   photo,
	}, http.StatusCreated)
}

// GenerateWithPrompt handles POST /api/photos/generate-with-prompt
func (h *PhotoHandler) GenerateWithPrompt(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := readPhotoUpload(w, r)
	if !ok {
		return
	}

	promptID, err := strconv.ParseInt(r.FormValue("prompt_id"), 10, 64)
	if err != nil {
		respondError(w, "prompt_id is required", http.StatusBadRequest)
		return
	}

	photo, err := h.photoService.GenerateWithPrompt(r.Context(), promptID, image, mimeType)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "Prompt not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("prompt_id", promptID).Msg("Failed to generate photo")
		respondError(w, "Failed to generate photo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"message": "Photo generated successfully",
		"photo":   photo,
	}, http.StatusCreated)
}

// Like handles POST /api/photos/{id}/like
func (h *PhotoHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}

	photo, err := h.photoService.Like(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("photo_id", id).Msg("Failed to like photo")
		respondError(w, "Failed to like photo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, photo, http.StatusOK)
}

// readPhotoUpload reads the multipart "photo" field, enforcing the size
// cap and image content type. Responds with an error itself when ok is
// false.
func readPhotoUpload(w http.ResponseWriter, r *http.Request) (data []byte, mimeType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Photo is required", http.StatusBadRequest)
		return nil, "", false
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "Photo is required", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	mimeType = header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		respondError(w, "Only image files are allowed", http.StatusBadRequest)
		return nil, "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read uploaded photo", http.StatusBadRequest)
		return nil, "", false
	}

	return data, mimeType, true
}
