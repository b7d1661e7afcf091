package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibecord/storefront-auth/internal/models"
)

func newTestRegistry(store *fakeSessionStore) *SessionRegistry {
	return NewSessionRegistry(store, SessionRegistryConfig{
		TTL:         24 * time.Hour,
		MaxSessions: 5,
	}, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

func TestSessionRegistry_CreateGeneratesOpaqueID(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)

	assert.Len(t, session.ID, 32, "session id is 16 random bytes hex-encoded")
	assert.True(t, session.IsActive)
	assert.Equal(t, "user-1", session.UserID)

	other, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, other.ID)
}

func TestSessionRegistry_EvictsOldestBeyondCap(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	var ids []string
	for i := 0; i < 5; i++ {
		session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
		ids = append(ids, session.ID)
		clock = clock.Add(time.Minute)
	}
	require.Equal(t, 5, store.activeCount("user-1"))

	// The sixth login pushes the very first session out
	sixth, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)

	assert.Equal(t, 5, store.activeCount("user-1"))

	oldest, err := store.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, oldest.IsActive, "oldest session is evicted")

	for _, id := range ids[1:] {
		s, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, s.IsActive, "newer sessions survive eviction")
	}

	s, err := store.GetByID(ctx, sixth.ID)
	require.NoError(t, err)
	assert.True(t, s.IsActive)
}

func TestSessionRegistry_EvictionBreaksTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	// All sessions share one timestamp; insertion order decides age
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	var ids []string
	for i := 0; i < 6; i++ {
		session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}

	first, err := store.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, first.IsActive, "first-inserted session is the oldest")
	assert.Equal(t, 5, store.activeCount("user-1"))
}

func TestSessionRegistry_SessionsPerUserAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	for i := 0; i < 5; i++ {
		_, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := registry.CreateSession(ctx, "user-2", "iphash", "agent")
		require.NoError(t, err)
	}

	assert.Equal(t, 5, store.activeCount("user-1"))
	assert.Equal(t, 3, store.activeCount("user-2"))
}

func TestSessionRegistry_ValidateReasons(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	t.Run("unknown id", func(t *testing.T) {
		v, err := registry.ValidateSession(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, models.SessionNotFound, v.Reason)
	})

	t.Run("deactivated", func(t *testing.T) {
		session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
		require.NoError(t, registry.DeactivateSession(ctx, session.ID))

		v, err := registry.ValidateSession(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, models.SessionInactive, v.Reason)
	})

	t.Run("active", func(t *testing.T) {
		session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)

		v, err := registry.ValidateSession(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Reason)
	})
}

func TestSessionRegistry_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)

	// Jump the registry clock past the TTL. The stored row is still
	// marked active until validation observes the expiry.
	registry.now = func() time.Time { return session.ExpiresAt }

	v, err := registry.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, models.SessionExpired, v.Reason)

	// Validation deactivated the row, so the reason shifts
	v, err = registry.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, models.SessionInactive, v.Reason)
}

func TestSessionRegistry_DeactivateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)

	require.NoError(t, registry.DeactivateSession(ctx, session.ID))
	require.NoError(t, registry.DeactivateSession(ctx, session.ID))
	require.NoError(t, registry.DeactivateSession(ctx, "never-existed"))
}

func TestSessionRegistry_EvictionFailureKeepsNewSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	for i := 0; i < 5; i++ {
		_, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
	}

	// The create lands but the eviction list fails. The fresh login
	// survives and the cap is transiently exceeded.
	store.listErr = errors.New("connection reset")

	session, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 6, store.activeCount("user-1"))

	// The next create, with the store healthy again, reconciles
	store.listErr = nil
	_, err = registry.CreateSession(ctx, "user-1", "iphash", "agent")
	require.NoError(t, err)
	assert.Equal(t, 5, store.activeCount("user-1"))
}

func TestSessionRegistry_DeactivateAllForUser(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	for i := 0; i < 3; i++ {
		_, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
	}
	_, err := registry.CreateSession(ctx, "user-2", "iphash", "agent")
	require.NoError(t, err)

	require.NoError(t, registry.DeactivateAllForUser(ctx, "user-1"))

	assert.Equal(t, 0, store.activeCount("user-1"))
	assert.Equal(t, 1, store.activeCount("user-2"))
}

func TestSessionRegistry_DeactivateOthersKeepsGivenSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	registry := newTestRegistry(store)

	var keep *models.Session
	for i := 0; i < 3; i++ {
		s, err := registry.CreateSession(ctx, "user-1", "iphash", "agent")
		require.NoError(t, err)
		if i == 1 {
			keep = s
		}
	}

	require.NoError(t, registry.DeactivateOthers(ctx, "user-1", keep.ID))

	assert.Equal(t, 1, store.activeCount("user-1"))
	v, err := registry.ValidateSession(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, v.Valid)
}
