package services

import (
	"context"
	"fmt"
	"math/rand"

	"photobooth-backend/internal/models"
	"photobooth-backend/internal/repository"
)

// RouletteService picks random categories and prompts for staged events
type RouletteService struct {
	rouletteRepo *repository.RouletteRepository
	promptRepo   *repository.PromptRepository
}

// NewRouletteService creates a new roulette service
func NewRouletteService(rouletteRepo *repository.RouletteRepository, promptRepo *repository.PromptRepository) *RouletteService {
	return &RouletteService{
		rouletteRepo: rouletteRepo,
		promptRepo:   promptRepo,
	}
}

// AvailableCategories lists the categories that have prompts, with labels
func (s *RouletteService) AvailableCategories(ctx context.Context) ([]models.RouletteCategory, error) {
	categories, err := s.promptRepo.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.RouletteCategory, 0, len(categories))
	for _, c := range categories {
		out = append(out, models.RouletteCategory{
			Category: c,
			Label:    models.MediaCategoryLabels[c],
		})
	}
	return out, nil
}

// Spin selects a random category among those with prompts and persists it
// as the active result.
func (s *RouletteService) Spin(ctx context.Context) (*models.RouletteResult, error) {
	categories, err := s.AvailableCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories with prompts available")
	}

	selected := categories[rand.Intn(len(categories))]
	result := &models.RouletteResult{
		SelectedCategory: selected.Category,
		CategoryLabel:    selected.Label,
	}
	if err := s.rouletteRepo.SaveSpin(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Current returns the active roulette result
func (s *RouletteService) Current(ctx context.Context) (*models.RouletteResult, error) {
	return s.rouletteRepo.Current(ctx)
}

// Prompts lists all prompts for the roulette wheel, title-ascending
func (s *RouletteService) Prompts(ctx context.Context) ([]models.Prompt, error) {
	return s.promptRepo.List(ctx, nil)
}

// SpinPrompts selects a random prompt across all categories
func (s *RouletteService) SpinPrompts(ctx context.Context) (*models.Prompt, error) {
	prompt, err := s.promptRepo.Random(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("no prompts available")
		}
		return nil, err
	}
	return prompt, nil
}

// DrawPrompt selects a random prompt from one category
func (s *RouletteService) DrawPrompt(ctx context.Context, category models.MediaCategory) (*models.Prompt, error) {
	prompt, err := s.promptRepo.RandomByCategory(ctx, category)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("no prompts found for category %s", category)
		}
		return nil, err
	}
	return prompt, nil
}
