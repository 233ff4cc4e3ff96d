// Package service wraps the generative-language calls behind operations that
// never fail observably: any upstream problem resolves to a fixed fallback.
package service

import (
	"context"
	"time"
)

// Config defines the models and limits used by the AI-backed services.
type Config struct {
	TextModel      string
	ImageModel     string
	ThinkingBudget int32
	// CallTimeout bounds each upstream call; on expiry the fallback is used.
	CallTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TextModel:      "gemini-3-pro-preview",
		ImageModel:     "gemini-2.5-flash-image",
		ThinkingBudget: 32768,
		CallTimeout:    90 * time.Second,
	}
}

func (c Config) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.CallTimeout)
}
