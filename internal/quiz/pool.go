// Package quiz holds the question pool and per-session question sampling.
package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"solo-persona/backend/internal/models"

	"gopkg.in/yaml.v3"
)

// MaxTraitDelta is the largest delta a single option may carry on one axis.
const MaxTraitDelta = 10

// ErrPoolTooSmall is returned when a session asks for more questions than the pool holds.
var ErrPoolTooSmall = errors.New("question pool too small")

//go:embed pool.yaml
var defaultPoolYAML []byte

// Pool is the static, versioned question collection loaded at startup.
type Pool struct {
	Version   int               `yaml:"version"`
	Questions []models.Question `yaml:"questions"`
}

// Len returns the number of questions in the pool.
func (p *Pool) Len() int {
	return len(p.Questions)
}

// DefaultPool returns the embedded pool.
func DefaultPool() (*Pool, error) {
	return ParsePool(defaultPoolYAML)
}

// LoadPool reads a pool from a YAML file. An empty path selects the embedded pool.
func LoadPool(path string) (*Pool, error) {
	if path == "" {
		return DefaultPool()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question pool %s: %w", path, err)
	}
	return ParsePool(data)
}

// ParsePool decodes and validates a YAML pool.
func ParsePool(data []byte) (*Pool, error) {
	var pool Pool
	if err := yaml.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("parse question pool: %w", err)
	}
	if err := pool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question pool: %w", err)
	}
	return &pool, nil
}

// Validate checks ids are positive and unique, every question has at least two options,
// and every delta is within 0..MaxTraitDelta.
func (p *Pool) Validate() error {
	if len(p.Questions) == 0 {
		return errors.New("no questions")
	}

	seen := make(map[int]bool, len(p.Questions))
	for _, q := range p.Questions {
		if q.ID < 1 {
			return fmt.Errorf("question id %d must be positive", q.ID)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true

		if q.Text == "" {
			return fmt.Errorf("question %d has no text", q.ID)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d needs at least 2 options, has %d", q.ID, len(q.Options))
		}

		optionIDs := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o.ID == "" || optionIDs[o.ID] {
				return fmt.Errorf("question %d has a missing or duplicate option id %q", q.ID, o.ID)
			}
			optionIDs[o.ID] = true
			for axis, d := range o.Traits {
				if d < 0 || d > MaxTraitDelta {
					return fmt.Errorf("question %d option %s axis %d: delta %d out of range", q.ID, o.ID, axis, d)
				}
			}
		}
	}
	return nil
}

// Sample draws n distinct questions uniformly: a Fisher-Yates shuffle of a
// copy of the pool, truncated to n. A pool smaller than n is an error; the
// session never runs with fewer questions than configured.
func Sample(pool []models.Question, n int, rng *rand.Rand) ([]models.Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrPoolTooSmall, n, len(pool))
	}

	shuffled := make([]models.Question, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n], nil
}
