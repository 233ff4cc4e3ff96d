// Package session implements the quiz state machine and the analysis cycle
// that fills a session with a profile, portraits and match results.
package session

import (
	"time"

	"solo-persona/backend/internal/models"
)

// State is the top-level screen of a session.
type State string

const (
	StateWelcome      State = "welcome"
	StateGenderSelect State = "gender_select"
	StateQuiz         State = "quiz"
	StateAnalyzing    State = "analyzing"
	StateResult       State = "result"
)

// Slot identifies one of the two portraits.
type Slot string

const (
	SlotSelf    Slot = "self"
	SlotPartner Slot = "partner"
)

// ParseSlot validates a raw slot name.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotSelf, SlotPartner:
		return Slot(s), true
	}
	return "", false
}

// Session is the mutable state owned by a Controller.
type Session struct {
	ID        string
	State     State
	Gender    models.Gender
	Questions []models.Question
	Index     int
	Traits    models.UserTraits

	Profile         *models.CharacterProfile
	SelfPortrait    *models.Portrait
	PartnerPortrait *models.Portrait
	PartnerName     string
	Match           *models.MatchResult

	Regenerating     bool
	GeneratingImages bool
	Matching         bool

	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// reset returns every field to its initial value, keeping identity.
func (s *Session) reset() {
	*s = Session{
		ID:        s.ID,
		State:     StateWelcome,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Progress locates the current question within the quiz.
type Progress struct {
	Index   int `json:"index"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

func (s *Session) progress() Progress {
	total := len(s.Questions)
	p := Progress{Index: s.Index, Total: total}
	if total > 0 {
		p.Percent = s.Index * 100 / total
	}
	return p
}

// Snapshot is a read-only copy of a session for the view.
type Snapshot struct {
	ID               string                   `json:"id"`
	State            State                    `json:"state"`
	Gender           models.Gender            `json:"gender,omitempty"`
	Progress         *Progress                `json:"progress,omitempty"`
	Traits           models.UserTraits        `json:"traits"`
	Profile          *models.CharacterProfile `json:"profile,omitempty"`
	SelfPortrait     string                   `json:"selfPortrait,omitempty"`
	PartnerPortrait  string                   `json:"partnerPortrait,omitempty"`
	PartnerName      string                   `json:"partnerName,omitempty"`
	Match            *models.MatchResult      `json:"match,omitempty"`
	Regenerating     bool                     `json:"regenerating"`
	GeneratingImages bool                     `json:"generatingImages"`
	Matching         bool                     `json:"matching"`
	Version          uint64                   `json:"version"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:               s.ID,
		State:            s.State,
		Gender:           s.Gender,
		Traits:           s.Traits,
		PartnerName:      s.PartnerName,
		Regenerating:     s.Regenerating,
		GeneratingImages: s.GeneratingImages,
		Matching:         s.Matching,
		Version:          s.Version,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.State == StateQuiz {
		p := s.progress()
		snap.Progress = &p
	}
	if s.Profile != nil {
		p := *s.Profile
		p.Strengths = append([]string(nil), s.Profile.Strengths...)
		p.Weaknesses = append([]string(nil), s.Profile.Weaknesses...)
		snap.Profile = &p
	}
	if s.SelfPortrait != nil {
		snap.SelfPortrait = s.SelfPortrait.DataURL()
	}
	if s.PartnerPortrait != nil {
		snap.PartnerPortrait = s.PartnerPortrait.DataURL()
	}
	if s.Match != nil {
		m := *s.Match
		snap.Match = &m
	}
	return snap
}
