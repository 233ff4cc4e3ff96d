package service

import (
	"context"
	"strings"

	"solo-persona/backend/ai"
	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/prompts"
	"solo-persona/backend/pkg/logger"
)

// PortraitService generates contestant portraits.
type PortraitService struct {
	images  ai.ImageGenerator
	prompts *prompts.Builder
	config  Config
}

// NewPortraitService creates a portrait service.
func NewPortraitService(images ai.ImageGenerator, b *prompts.Builder, config Config) *PortraitService {
	return &PortraitService{images: images, prompts: b, config: config}
}

// GeneratePortrait returns nil on any failure. A blank description skips the
// upstream call entirely.
func (s *PortraitService) GeneratePortrait(ctx context.Context, description string, gender models.Gender) *models.Portrait {
	if strings.TrimSpace(description) == "" {
		return nil
	}

	prompt, err := s.prompts.Portrait(description, gender)
	if err == nil {
		ctx, cancel := s.config.withDeadline(ctx)
		defer cancel()

		var img *ai.InlineImage
		img, err = s.images.GenerateImage(ctx, ai.ImageRequest{Model: s.config.ImageModel, Prompt: prompt})
		if err == nil {
			return &models.Portrait{MimeType: img.MIMEType, Data: img.Base64()}
		}
	}

	logger.FromContext(ctx).Warn("portrait generation failed",
		"operation", "generate_portrait",
		"gender", string(gender),
		"error", err.Error(),
	)
	return nil
}
