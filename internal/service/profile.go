package service

import (
	"context"

	"solo-persona/backend/ai"
	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/prompts"
	"solo-persona/backend/pkg/logger"
)

// ProfileService turns traits into a character profile.
type ProfileService struct {
	text    ai.TextGenerator
	prompts *prompts.Builder
	config  Config
}

// NewProfileService creates a profile service.
func NewProfileService(text ai.TextGenerator, b *prompts.Builder, config Config) *ProfileService {
	return &ProfileService{text: text, prompts: b, config: config}
}

// AnalyzePersonality always returns a usable profile. Transport errors,
// timeouts, empty text and schema violations all resolve to FallbackProfile.
func (s *ProfileService) AnalyzePersonality(ctx context.Context, traits models.UserTraits, gender models.Gender) models.CharacterProfile {
	log := logger.FromContext(ctx)

	profile, err := s.analyze(ctx, traits, gender)
	if err != nil {
		log.Warn("profile generation failed, using fallback",
			"operation", "analyze_personality",
			"gender", string(gender),
			"error", err.Error(),
		)
		return FallbackProfile(gender)
	}
	return profile
}

func (s *ProfileService) analyze(ctx context.Context, traits models.UserTraits, gender models.Gender) (models.CharacterProfile, error) {
	prompt, err := s.prompts.Profile(traits, gender)
	if err != nil {
		return models.CharacterProfile{}, err
	}

	ctx, cancel := s.config.withDeadline(ctx)
	defer cancel()

	raw, err := s.text.GenerateJSON(ctx, ai.TextRequest{
		Model:          s.config.TextModel,
		Prompt:         prompt,
		Schema:         ai.ProfileSchema(),
		ThinkingBudget: s.config.ThinkingBudget,
	})
	if err != nil {
		return models.CharacterProfile{}, err
	}
	return decodeProfile(raw)
}

// FallbackProfile is the fixed, gender-appropriate placeholder persona.
func FallbackProfile(gender models.Gender) models.CharacterProfile {
	name, base := "오류난 옥순", "옥순"
	if gender == models.GenderMale {
		name, base = "오류난 광수", "광수"
	}
	return models.CharacterProfile{
		Name:                          name,
		BaseName:                      base,
		Catchphrase:                   "서버가... 터졌나요?",
		Description:                   "AI 분석 중 오류가 발생했습니다. 하지만 당신은 분명 매력적인 사람일 겁니다.",
		FamousLine:                    "지금 이 상황, 나만 불편해?",
		Strengths:                     []string{"인내심", "관용", "재시도 능력"},
		Weaknesses:                    []string{"운", "와이파이"},
		VisualDescription:             "A silhouette of a Korean " + gender.Term(),
		Strategy:                      "다시 시도해보는 것이 좋겠습니다.",
		IdealPartner:                  "개발자",
		SuccessRate:                   0,
		IdealPartnerVisualDescription: "A silhouette of a Korean " + gender.Opposite().Term(),
	}
}
