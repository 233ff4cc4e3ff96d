package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solo-persona/backend/pkg/logger"
	"solo-persona/backend/pkg/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const tracerName = "solo-persona/backend/ai"

// Models is the generative-content surface of the SDK client. *genai.Models satisfies it.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements TextGenerator and ImageGenerator on the Gemini API.
type GeminiClient struct {
	models  Models
	breaker *resilience.CircuitBreaker
	metrics *Metrics
	log     *logger.Logger
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey  string
	Breaker *resilience.CircuitBreaker
	Metrics *Metrics
	Logger  *logger.Logger
}

// NewGeminiClient dials the Gemini API with an API key.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return NewGeminiClientWithModels(client.Models, opts), nil
}

// NewGeminiClientWithModels wraps an existing model surface.
func NewGeminiClientWithModels(models Models, opts GeminiOptions) *GeminiClient {
	if opts.Logger == nil {
		opts.Logger = logger.GetGlobal()
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("gemini"), opts.Logger)
	}
	return &GeminiClient{
		models:  models,
		breaker: opts.Breaker,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *GeminiClient) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// GenerateJSON requests JSON output constrained by req.Schema and returns the raw text.
func (c *GeminiClient) GenerateJSON(ctx context.Context, req TextRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}

	var text string
	err := c.call(ctx, "text", req.Model, func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return ErrEmptyText
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateImage returns the first inline image of the first candidate.
func (c *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (*InlineImage, error) {
	var img *InlineImage
	err := c.call(ctx, "image", req.Model, func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), nil)
		if err != nil {
			return err
		}
		img = firstInlineImage(resp)
		if img == nil {
			return ErrNoImage
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (c *GeminiClient) call(ctx context.Context, kind, model string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gemini."+kind)
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", model))

	start := time.Now()
	err := c.breaker.Execute(ctx, fn)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case errors.Is(err, ErrEmptyText), errors.Is(err, ErrNoImage):
		outcome = "empty"
	default:
		outcome = "error"
	}
	c.metrics.observe(kind, model, elapsed.Seconds(), outcome)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.log.Debug("gemini call failed",
			"kind", kind,
			"model", model,
			"outcome", outcome,
			"duration", elapsed.String(),
			"error", err.Error(),
		)
		return fmt.Errorf("gemini %s call: %w", kind, err)
	}
	return nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) *InlineImage {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &InlineImage{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
		}
	}
	return nil
}
