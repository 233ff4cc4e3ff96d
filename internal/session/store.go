package session

import (
	"time"

	"solo-persona/backend/pkg/cache"

	"github.com/google/uuid"
)

// StoreOptions bounds the in-memory session registry.
type StoreOptions struct {
	TTL         time.Duration
	PurgeWindow time.Duration
	MaxSessions int
}

// Store keeps controllers in a TTL cache. Idle sessions expire; evicted
// controllers are closed so their background work stops.
type Store struct {
	cache *cache.Cache
	deps  Dependencies
}

// NewStore creates a session store.
func NewStore(deps Dependencies, opts StoreOptions) *Store {
	c := cache.New(cache.Options{
		DefaultExpiration: opts.TTL,
		CleanupInterval:   opts.PurgeWindow,
		MaxItems:          opts.MaxSessions,
		Sliding:           true,
	})
	c.SetOnEvicted(func(_ string, v interface{}) {
		if ctrl, ok := v.(*Controller); ok {
			go ctrl.Close()
		}
	})
	return &Store{cache: c, deps: deps}
}

// Create registers a new session in the Welcome state.
func (s *Store) Create() *Controller {
	ctrl := NewController(uuid.NewString(), s.deps)
	s.cache.Set(ctrl.ID(), ctrl)
	return ctrl
}

// Get looks up a live session.
func (s *Store) Get(id string) (*Controller, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Controller), nil
}

// Delete closes and removes a session.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}

// Count returns the number of sessions held, including expired ones not yet purged.
func (s *Store) Count() int {
	return s.cache.Count()
}

// Close stops the purge loop.
func (s *Store) Close() {
	s.cache.Close()
}
