package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"solo-persona/backend/internal/models"
)

// Builder renders prompts from Content. Safe for concurrent use.
type Builder struct {
	content  *Content
	profile  *template.Template
	portrait *template.Template
	match    *template.Template
}

// NewBuilder compiles the content templates.
func NewBuilder(c *Content) (*Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{content: c}
	var err error
	if b.profile, err = template.New("profile").Option("missingkey=error").Parse(c.Templates.Profile); err != nil {
		return nil, fmt.Errorf("profile template: %w", err)
	}
	if b.portrait, err = template.New("portrait").Option("missingkey=error").Parse(c.Templates.Portrait); err != nil {
		return nil, fmt.Errorf("portrait template: %w", err)
	}
	if b.match, err = template.New("match").Option("missingkey=error").Parse(c.Templates.Match); err != nil {
		return nil, fmt.Errorf("match template: %w", err)
	}
	return b, nil
}

// Profile builds the persona prompt for the given traits and gender.
func (b *Builder) Profile(traits models.UserTraits, gender models.Gender) (string, error) {
	return render(b.profile, struct {
		Gender        string
		PartnerGender string
		Traits        models.UserTraits
		Max           int
		Names         string
		Guide         []string
		Tone          string
	}{
		Gender:        gender.Term(),
		PartnerGender: gender.Opposite().Term(),
		Traits:        traits,
		Max:           models.RadarMax,
		Names:         strings.Join(b.content.Names.For(gender), ", "),
		Guide:         b.content.NamingGuide,
		Tone:          b.content.Tone,
	})
}

// Portrait builds the image prompt; the subject gender is restated so the
// image matches even when the description is vague.
func (b *Builder) Portrait(description string, gender models.Gender) (string, error) {
	return render(b.portrait, struct {
		Subject     string
		Description string
	}{
		Subject:     gender.PortraitSubject(),
		Description: strings.TrimRight(strings.TrimSpace(description), "."),
	})
}

// Match builds the compatibility prompt.
func (b *Builder) Match(profile models.CharacterProfile, partner string) (string, error) {
	return render(b.match, struct {
		Name        string
		Description string
		Partner     string
	}{
		Name:        profile.Name,
		Description: profile.Description,
		Partner:     partner,
	})
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
