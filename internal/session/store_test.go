package session

import (
	"testing"
	"time"

	"solo-persona/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(Dependencies{Pool: testPool(), Logger: logger.Discard()}, StoreOptions{TTL: time.Hour})
	defer s.Close()

	ctrl := s.Create()
	assert.Equal(t, StateWelcome, ctrl.Snapshot().State)
	assert.Equal(t, 1, s.Count())

	got, err := s.Get(ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)

	require.NoError(t, s.Delete(ctrl.ID()))
	_, err = s.Get(ctrl.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctrl.ID()), ErrNotFound)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	s := NewStore(Dependencies{Pool: testPool(), Logger: logger.Discard()}, StoreOptions{TTL: 10 * time.Millisecond})
	defer s.Close()

	ctrl := s.Create()
	time.Sleep(20 * time.Millisecond)

	_, err := s.Get(ctrl.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSessionsAreIndependent(t *testing.T) {
	s := NewStore(Dependencies{Pool: testPool(), Logger: logger.Discard()}, StoreOptions{})
	defer s.Close()

	a, b := s.Create(), s.Create()
	_, err := a.Start()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, StateGenderSelect, a.Snapshot().State)
	assert.Equal(t, StateWelcome, b.Snapshot().State)
}
