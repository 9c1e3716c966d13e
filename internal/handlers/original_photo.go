package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/services"
)

// OriginalPhotoHandler handles un-composited photo uploads and listing
type OriginalPhotoHandler struct {
	photoService *services.PhotoService
}

// NewOriginalPhotoHandler creates a new original photo handler
func NewOriginalPhotoHandler(photoService *services.PhotoService) *OriginalPhotoHandler {
	return &OriginalPhotoHandler{
		photoService: photoService,
	}
}

// Upload handles POST /api/original-photos
func (h *OriginalPhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := readPhotoUpload(w, r)
	if !ok {
		return
	}

	photo, err := h.photoService.UploadOriginal(r.Context(), image, mimeType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload original photo")
		respondError(w, "Failed to upload original photo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"message": "Original photo uploaded successfully",
		"photo":   photo,
	}, http.StatusCreated)
}

// List handles GET /api/original-photos
func (h *OriginalPhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photoService.ListOriginals(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list original photos")
		respondError(w, "Failed to list original photos", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"photos": photos,
		"total":  len(photos),
	}, http.StatusOK)
}
