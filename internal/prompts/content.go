// Package prompts turns traits, profiles and partner names into the prompt
// text sent to the generative-language service.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"solo-persona/backend/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContentYAML []byte

// Content is the editable product copy behind every prompt.
type Content struct {
	Names       Names     `yaml:"names"`
	NamingGuide []string  `yaml:"namingGuide"`
	Tone        string    `yaml:"tone"`
	Templates   Templates `yaml:"templates"`
}

// Names lists the candidate character names per gender.
type Names struct {
	Male   []string `yaml:"male"`
	Female []string `yaml:"female"`
}

// For returns the candidate names for g.
func (n Names) For(g models.Gender) []string {
	if g == models.GenderMale {
		return n.Male
	}
	return n.Female
}

// Templates holds the raw text/template sources.
type Templates struct {
	Profile  string `yaml:"profile"`
	Portrait string `yaml:"portrait"`
	Match    string `yaml:"match"`
}

// DefaultContent returns the embedded content.
func DefaultContent() (*Content, error) {
	return ParseContent(defaultContentYAML)
}

// LoadContent reads content from a YAML file; an empty path selects the embedded default.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return DefaultContent()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt content %s: %w", path, err)
	}
	return ParseContent(data)
}

// ParseContent decodes and validates YAML content.
func ParseContent(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prompt content: %w", err)
	}
	return &c, nil
}

func (c *Content) Validate() error {
	switch {
	case len(c.Names.Male) == 0 || len(c.Names.Female) == 0:
		return errors.New("candidate names required for both genders")
	case c.Templates.Profile == "":
		return errors.New("profile template is empty")
	case c.Templates.Portrait == "":
		return errors.New("portrait template is empty")
	case c.Templates.Match == "":
		return errors.New("match template is empty")
	}
	return nil
}
