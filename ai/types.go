// Package ai talks to the generative-language service: structured JSON text
// generation and single-image generation.
package ai

import (
	"context"
	"encoding/base64"
	"errors"

	"google.golang.org/genai"
)

var (
	// ErrEmptyText is returned when the model answered without any text.
	ErrEmptyText = errors.New("model returned no text")
	// ErrNoImage is returned when no candidate carried an inline image.
	ErrNoImage = errors.New("model returned no inline image")
)

// TextRequest asks for a JSON document conforming to Schema.
type TextRequest struct {
	Model          string
	Prompt         string
	Schema         *genai.Schema
	ThinkingBudget int32
}

// ImageRequest asks for a single image.
type ImageRequest struct {
	Model  string
	Prompt string
}

// InlineImage is the first inline payload found in a response.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the payload as standard base64 text.
func (i *InlineImage) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// TextGenerator produces raw JSON text for a schema.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator produces one image for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*InlineImage, error)
}
