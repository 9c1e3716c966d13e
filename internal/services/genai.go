package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	appconfig "photobooth-backend/internal/config"
)

// ImageGenerator composites a visitor photo with a prompt into a new image
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error)
}

// GenAIService generates images through the hosted Gemini API
type GenAIService struct {
	client *genai.Client
	model  string
}

// NewGenAIService creates a generative image service
func NewGenAIService(ctx context.Context, cfg appconfig.GenAIConfig) (*GenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIService{client: client, model: cfg.Model}, nil
}

// GenerateImage sends the source photo plus the prompt text to the model
// and returns the first inline image of the response.
func (s *GenAIService) GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("model response contained no image data")
}
