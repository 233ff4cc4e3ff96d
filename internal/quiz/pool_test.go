package quiz

import (
	"math/rand"
	"testing"

	"solo-persona/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolIsValid(t *testing.T) {
	pool, err := DefaultPool()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pool.Len(), 7)
	for _, q := range pool.Questions {
		assert.Len(t, q.Options, 4, "question %d", q.ID)
	}
}

func TestSampleYieldsDistinctPoolMembers(t *testing.T) {
	pool, err := DefaultPool()
	require.NoError(t, err)

	inPool := make(map[int]bool)
	for _, q := range pool.Questions {
		inPool[q.ID] = true
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		got, err := Sample(pool.Questions, 7, rng)
		require.NoError(t, err)
		require.Len(t, got, 7)

		seen := make(map[int]bool)
		for _, q := range got {
			assert.True(t, inPool[q.ID], "question %d not from pool", q.ID)
			assert.False(t, seen[q.ID], "question %d drawn twice", q.ID)
			seen[q.ID] = true
		}
	}
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	pool := []models.Question{{ID: 1}, {ID: 2}, {ID: 3}}

	_, err := Sample(pool, 3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, []models.Question{{ID: 1}, {ID: 2}, {ID: 3}}, pool)
}

func TestSampleIsRoughlyUniform(t *testing.T) {
	pool := make([]models.Question, 10)
	for i := range pool {
		pool[i].ID = i
	}

	counts := make([]int, len(pool))
	rng := rand.New(rand.NewSource(99))
	const trials = 20000
	for i := 0; i < trials; i++ {
		got, err := Sample(pool, 1, rng)
		require.NoError(t, err)
		counts[got[0].ID]++
	}

	for id, c := range counts {
		assert.InDelta(t, trials/len(pool), c, 300, "question %d", id)
	}
}

func TestSampleRejectsSmallPool(t *testing.T) {
	pool := make([]models.Question, 6)

	got, err := Sample(pool, 7, rand.New(rand.NewSource(1)))

	assert.ErrorIs(t, err, ErrPoolTooSmall)
	assert.Nil(t, got)
}

func TestParsePoolValidation(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
questions:
  - {id: 1, text: a, options: [{id: A, text: x, traits: [0,0,0,0,0]}, {id: B, text: y, traits: [0,0,0,0,0]}]}
  - {id: 1, text: b, options: [{id: A, text: x, traits: [0,0,0,0,0]}, {id: B, text: y, traits: [0,0,0,0,0]}]}
`,
		"delta out of range": `
questions:
  - {id: 1, text: a, options: [{id: A, text: x, traits: [11,0,0,0,0]}, {id: B, text: y, traits: [0,0,0,0,0]}]}
`,
		"single option": `
questions:
  - {id: 1, text: a, options: [{id: A, text: x, traits: [0,0,0,0,0]}]}
`,
		"zero id": `
questions:
  - {id: 0, text: a, options: [{id: A, text: x, traits: [0,0,0,0,0]}, {id: B, text: y, traits: [0,0,0,0,0]}]}
`,
		"negative id": `
questions:
  - {id: -3, text: a, options: [{id: A, text: x, traits: [0,0,0,0,0]}, {id: B, text: y, traits: [0,0,0,0,0]}]}
`,
		"empty": `questions: []`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePool([]byte(doc))
			assert.Error(t, err)
		})
	}
}
