package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"solo-persona/backend/internal/models"

	"github.com/kaptinlin/jsonrepair"
)

var (
	// ErrEmptyResponse means the model returned only whitespace.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrSchemaViolation means a required field was missing or null.
	ErrSchemaViolation = errors.New("response violates schema")
)

type profileWire struct {
	Name                          *string   `json:"name"`
	BaseName                      *string   `json:"baseName"`
	Catchphrase                   *string   `json:"catchphrase"`
	Description                   *string   `json:"description"`
	FamousLine                    *string   `json:"famousLine"`
	Strengths                     *[]string `json:"strengths"`
	Weaknesses                    *[]string `json:"weaknesses"`
	VisualDescription             *string   `json:"visualDescription"`
	Strategy                      *string   `json:"strategy"`
	IdealPartner                  *string   `json:"idealPartner"`
	SuccessRate                   *int      `json:"successRate"`
	IdealPartnerVisualDescription *string   `json:"idealPartnerVisualDescription"`
}

type matchWire struct {
	MatchScore *int    `json:"matchScore"`
	Scenario   *string `json:"scenario"`
	Verdict    *string `json:"verdict"`
}

// unmarshalLenient repairs common model JSON defects (code fences, trailing
// commas, unquoted keys) before decoding.
func unmarshalLenient(raw string, v any) error {
	raw = stripFences(strings.TrimSpace(raw))
	if raw == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type field struct {
	name    string
	present bool
}

func requireFields(fields ...field) error {
	var absent []string
	for _, f := range fields {
		if !f.present {
			absent = append(absent, f.name)
		}
	}
	if len(absent) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaViolation, strings.Join(absent, ", "))
	}
	return nil
}

// decodeProfile parses a profile and enforces that all twelve fields are present.
func decodeProfile(raw string) (models.CharacterProfile, error) {
	var w profileWire
	if err := unmarshalLenient(raw, &w); err != nil {
		return models.CharacterProfile{}, err
	}

	if err := requireFields(
		field{"name", w.Name != nil},
		field{"baseName", w.BaseName != nil},
		field{"catchphrase", w.Catchphrase != nil},
		field{"description", w.Description != nil},
		field{"famousLine", w.FamousLine != nil},
		field{"strengths", w.Strengths != nil},
		field{"weaknesses", w.Weaknesses != nil},
		field{"visualDescription", w.VisualDescription != nil},
		field{"strategy", w.Strategy != nil},
		field{"idealPartner", w.IdealPartner != nil},
		field{"successRate", w.SuccessRate != nil},
		field{"idealPartnerVisualDescription", w.IdealPartnerVisualDescription != nil},
	); err != nil {
		return models.CharacterProfile{}, err
	}

	return models.CharacterProfile{
		Name:                          *w.Name,
		BaseName:                      *w.BaseName,
		Catchphrase:                   *w.Catchphrase,
		Description:                   *w.Description,
		FamousLine:                    *w.FamousLine,
		Strengths:                     *w.Strengths,
		Weaknesses:                    *w.Weaknesses,
		VisualDescription:             *w.VisualDescription,
		Strategy:                      *w.Strategy,
		IdealPartner:                  *w.IdealPartner,
		SuccessRate:                   *w.SuccessRate,
		IdealPartnerVisualDescription: *w.IdealPartnerVisualDescription,
	}, nil
}

// decodeMatch parses a compatibility result with all three fields required.
func decodeMatch(raw string) (models.MatchResult, error) {
	var w matchWire
	if err := unmarshalLenient(raw, &w); err != nil {
		return models.MatchResult{}, err
	}

	if err := requireFields(
		field{"matchScore", w.MatchScore != nil},
		field{"scenario", w.Scenario != nil},
		field{"verdict", w.Verdict != nil},
	); err != nil {
		return models.MatchResult{}, err
	}

	return models.MatchResult{
		MatchScore: *w.MatchScore,
		Scenario:   *w.Scenario,
		Verdict:    *w.Verdict,
	}, nil
}
