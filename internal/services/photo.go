package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/repository"
)

// PhotoService handles the photo creation path and feed queries
type PhotoService struct {
	photoRepo  *repository.PhotoRepository
	promptRepo *repository.PromptRepository
	storage    *StorageService
	generator  ImageGenerator
	hub        *FeedHub
}

// NewPhotoService creates a new photo service
func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	promptRepo *repository.PromptRepository,
	storage *StorageService,
	generator ImageGenerator,
	hub *FeedHub,
) *PhotoService {
	return &PhotoService{
		photoRepo:  photoRepo,
		promptRepo: promptRepo,
		storage:    storage,
		generator:  generator,
		hub:        hub,
	}
}

// Generate composites the uploaded photo with a random prompt, stores the
// result and announces it on the feed.
func (s *PhotoService) Generate(ctx context.Context, image []byte, mimeType string) (*models.FeedPhoto, error) {
	prompt, err := s.promptRepo.Random(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("no prompts available: %w", err)
		}
		return nil, err
	}
	return s.generateWith(ctx, prompt, image, mimeType)
}

// GenerateWithPrompt composites the uploaded photo with a specific prompt
func (s *PhotoService) GenerateWithPrompt(ctx context.Context, promptID int64, image []byte, mimeType string) (*models.FeedPhoto, error) {
	prompt, err := s.promptRepo.GetByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	return s.generateWith(ctx, prompt, image, mimeType)
}

func (s *PhotoService) generateWith(ctx context.Context, prompt *models.Prompt, image []byte, mimeType string) (*models.FeedPhoto, error) {
	generated, err := s.generator.GenerateImage(ctx, prompt.Prompt, image, mimeType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("generated-%s.png", uuid.New().String())
	if err := s.storage.Upload(ctx, key, generated, "image/png"); err != nil {
		return nil, err
	}

	photo := &models.Photo{
		Path:     key,
		Likes:    0,
		Kind:     models.PhotoKindGenerated,
		PromptID: &prompt.ID,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, err
	}

	feedPhoto, err := s.resolve(ctx, photo, prompt)
	if err != nil {
		return nil, err
	}

	// The insert is committed; push the resolved record to all viewers.
	s.hub.BroadcastNewPhoto(feedPhoto)

	log.Info().
		Int64("photo_id", photo.ID).
		Int64("prompt_id", prompt.ID).
		Msg("Photo generated")

	return feedPhoto, nil
}

// UploadOriginal stores an un-composited photo and announces it on the feed
func (s *PhotoService) UploadOriginal(ctx context.Context, image []byte, mimeType string) (*models.FeedPhoto, error) {
	key := fmt.Sprintf("original-%s.png", uuid.New().String())
	if err := s.storage.Upload(ctx, key, image, mimeType); err != nil {
		return nil, err
	}

	photo := &models.Photo{
		Path:  key,
		Likes: 0,
		Kind:  models.PhotoKindOriginal,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, err
	}

	feedPhoto, err := s.resolve(ctx, photo, nil)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastNewPhoto(feedPhoto)

	log.Info().Int64("photo_id", photo.ID).Msg("Original photo uploaded")

	return feedPhoto, nil
}

// Like atomically increments a photo's like count and pushes the updated
// record so connected viewers refresh their counters.
func (s *PhotoService) Like(ctx context.Context, photoID int64) (*models.FeedPhoto, error) {
	photo, prompt, err := s.photoRepo.IncrementLikes(ctx, photoID)
	if err != nil {
		return nil, err
	}

	feedPhoto, err := s.resolve(ctx, photo, prompt)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastPhotoUpdated(feedPhoto)

	return feedPhoto, nil
}

// List retrieves the feed page with resolved URLs, newest-first
func (s *PhotoService) List(ctx context.Context, limit, offset int) ([]models.FeedPhoto, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.photoRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	photos, err := s.resolveAll(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

// ListSince retrieves records created after the cursor, ascending, for the
// polling fallback.
func (s *PhotoService) ListSince(ctx context.Context, since time.Time) ([]models.FeedPhoto, error) {
	rows, err := s.photoRepo.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ctx, rows)
}

// ListOriginals retrieves all original photos, newest-first
func (s *PhotoService) ListOriginals(ctx context.Context) ([]models.FeedPhoto, error) {
	rows, err := s.photoRepo.ListByKind(ctx, models.PhotoKindOriginal)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ctx, rows)
}

// resolve substitutes the object key with a presigned URL so the record is
// directly renderable by clients.
func (s *PhotoService) resolve(ctx context.Context, photo *models.Photo, prompt *models.Prompt) (*models.FeedPhoto, error) {
	url, err := s.storage.ResolveURL(ctx, photo.Path)
	if err != nil {
		return nil, err
	}

	feedPhoto := &models.FeedPhoto{
		ID:        photo.ID,
		Path:      url,
		Likes:     photo.Likes,
		Kind:      photo.Kind,
		CreatedAt: photo.CreatedAt,
		UpdatedAt: photo.UpdatedAt,
	}
	if prompt != nil {
		feedPhoto.Prompt = &models.FeedPrompt{
			ID:     prompt.ID,
			Title:  prompt.Title,
			Prompt: prompt.Prompt,
		}
	}
	return feedPhoto, nil
}

func (s *PhotoService) resolveAll(ctx context.Context, rows []repository.PhotoWithPrompt) ([]models.FeedPhoto, error) {
	photos := make([]models.FeedPhoto, 0, len(rows))
	for i := range rows {
		feedPhoto, err := s.resolve(ctx, &rows[i].Photo, rows[i].Prompt)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *feedPhoto)
	}
	return photos, nil
}
