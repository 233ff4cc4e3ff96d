package prompts

import (
	"testing"

	"solo-persona/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	c, err := DefaultContent()
	require.NoError(t, err)
	b, err := NewBuilder(c)
	require.NoError(t, err)
	return b
}

func TestProfilePromptEmbedsTraitsAndNames(t *testing.T) {
	b := newBuilder(t)

	p, err := b.Profile(models.UserTraits{Aggressiveness: 20, Empathy: 15, Realism: 10, Humor: 5}, models.GenderFemale)
	require.NoError(t, err)

	assert.Contains(t, p, "- Gender: Female")
	assert.Contains(t, p, "- Aggressiveness: 20/50")
	assert.Contains(t, p, "- Style: 0/50")
	assert.Contains(t, p, "[Young-sook, Jung-sook, Sun-ja, Young-ja, Ok-soon, Hyun-sook, Jung-ja]")
	assert.NotContains(t, p, "Kwang-soo, Sang-chul")
	assert.Contains(t, p, "- Young-soo / Jung-sook: Eldest vibe")
	assert.Contains(t, p, "Defconn")
	assert.Contains(t, p, "a Korean Male (the opposite gender)")
}

func TestPortraitPromptRestatesGender(t *testing.T) {
	b := newBuilder(t)

	p, err := b.Portrait("Sharp glasses, navy suit.", models.GenderMale)
	require.NoError(t, err)

	assert.Equal(t,
		"A realistic high-quality portrait of a Korean man dating show contestant. Sharp glasses, navy suit. Soft lighting, broadcast camera quality, 4k, looking at camera.",
		p)
}

func TestMatchPrompt(t *testing.T) {
	b := newBuilder(t)

	p, err := b.Match(models.CharacterProfile{Name: "직진의 영숙", Description: "거침없다"}, "16기 상철")
	require.NoError(t, err)

	assert.Contains(t, p, "Character A (User): 직진의 영숙 (거침없다)")
	assert.Contains(t, p, "Character B (Partner): 16기 상철")
}

func TestParseContentRequiresNames(t *testing.T) {
	_, err := ParseContent([]byte(`
names: {male: [Young-soo]}
templates: {profile: a, portrait: b, match: c}
`))
	assert.Error(t, err)
}

func TestNewBuilderRejectsBadTemplate(t *testing.T) {
	c, err := DefaultContent()
	require.NoError(t, err)
	c.Templates.Match = "{{.Name"

	_, err = NewBuilder(c)
	assert.Error(t, err)
}
