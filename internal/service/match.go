package service

import (
	"context"

	"solo-persona/backend/ai"
	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/prompts"
	"solo-persona/backend/pkg/logger"
)

// MatchService produces compatibility reports.
type MatchService struct {
	text    ai.TextGenerator
	prompts *prompts.Builder
	config  Config
}

// NewMatchService creates a match service.
func NewMatchService(text ai.TextGenerator, b *prompts.Builder, config Config) *MatchService {
	return &MatchService{text: text, prompts: b, config: config}
}

// AnalyzeMatch always returns a result; failures resolve to FallbackMatch.
// The caller guarantees a non-empty partner name.
func (s *MatchService) AnalyzeMatch(ctx context.Context, profile models.CharacterProfile, partner string) models.MatchResult {
	result, err := s.analyze(ctx, profile, partner)
	if err != nil {
		logger.FromContext(ctx).Warn("match analysis failed, using fallback",
			"operation", "analyze_match",
			"partner", partner,
			"error", err.Error(),
		)
		return FallbackMatch()
	}
	return result
}

func (s *MatchService) analyze(ctx context.Context, profile models.CharacterProfile, partner string) (models.MatchResult, error) {
	prompt, err := s.prompts.Match(profile, partner)
	if err != nil {
		return models.MatchResult{}, err
	}

	ctx, cancel := s.config.withDeadline(ctx)
	defer cancel()

	raw, err := s.text.GenerateJSON(ctx, ai.TextRequest{
		Model:          s.config.TextModel,
		Prompt:         prompt,
		Schema:         ai.MatchSchema(),
		ThinkingBudget: s.config.ThinkingBudget,
	})
	if err != nil {
		return models.MatchResult{}, err
	}
	return decodeMatch(raw)
}

// FallbackMatch is the fixed result used when the upstream call fails.
func FallbackMatch() models.MatchResult {
	return models.MatchResult{
		MatchScore: 50,
		Scenario:   "데이터 분석에 실패하여 랜덤 데이트가 취소되었습니다.",
		Verdict:    "알 수 없음",
	}
}
