package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEP490-G11/Project-Round/internal/model"
)

func TestStoreHydratesFromBackend(t *testing.T) {
	backend := NewMemoryBackend()

	seed := NewStore(backend)
	require.NoError(t, seed.SetSession("T1", &model.User{
		ID: 7, Email: "a@b.com", FullName: "Alice B", Role: model.RoleAdmin,
	}))

	// A fresh store over the same backend sees the persisted session.
	restored := NewStore(backend)
	cur := restored.Current()
	assert.True(t, cur.LoggedIn())
	assert.Equal(t, "T1", restored.Token())
	require.NotNil(t, cur.Profile)
	assert.Equal(t, "a@b.com", cur.Profile.Email)
	assert.True(t, cur.IsAdmin())
}

func TestStoreEmptyBackendMeansLoggedOut(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Current().Profile)
}

func TestSetTokenKeepsProfile(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	require.NoError(t, s.SetSession("T1", &model.User{ID: 7, Email: "a@b.com", Role: model.RoleMember}))

	require.NoError(t, s.SetToken("T2"))

	cur := s.Current()
	assert.Equal(t, "T2", s.Token())
	require.NotNil(t, cur.Profile)
	assert.Equal(t, "a@b.com", cur.Profile.Email)
	assert.False(t, cur.IsAdmin())
}

func TestClearRemovesBothSlots(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend)
	require.NoError(t, s.SetSession("T1", &model.User{ID: 7, Email: "a@b.com"}))

	s.Clear()

	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.Current().Profile)

	// Nothing left to hydrate from.
	restored := NewStore(backend)
	assert.False(t, restored.LoggedIn())
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	s.Clear()
	s.Clear()
	assert.False(t, s.LoggedIn())
}

func TestSubscribeObservesTransitions(t *testing.T) {
	s := NewStore(NewMemoryBackend())

	var seen []Session
	s.Subscribe(func(snap Session) {
		seen = append(seen, snap)
	})

	require.NoError(t, s.SetSession("T1", &model.User{ID: 7, Email: "a@b.com"}))
	require.NoError(t, s.SetToken("T2"))
	s.Clear()

	require.Len(t, seen, 3)
	assert.Equal(t, "T1", seen[0].AccessToken)
	assert.Equal(t, "T2", seen[1].AccessToken)
	assert.False(t, seen[2].LoggedIn())
}

func TestListenerMaySubscribeReentrantly(t *testing.T) {
	// Listeners run outside the store lock, so calling back into the store
	// from a listener must not deadlock.
	s := NewStore(NewMemoryBackend())
	s.Subscribe(func(Session) {
		_ = s.Token()
	})
	require.NoError(t, s.SetToken("T1"))
}
