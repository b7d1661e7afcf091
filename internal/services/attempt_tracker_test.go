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
)

func newTestTracker(store *fakeAttemptStore) *AttemptTracker {
	return NewAttemptTracker(store, AttemptTrackerConfig{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

func TestAttemptTracker_LockoutThreshold(t *testing.T) {
	ctx := context.Background()
	store := newFakeAttemptStore()
	tracker := newTestTracker(store)

	for i := 0; i < 4; i++ {
		tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")
	}

	status, err := tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.False(t, status.Locked, "4 failures should not lock")

	tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")

	status, err = tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.True(t, status.Locked, "5 failures should lock")
	assert.Equal(t, 15*time.Minute, status.RetryAfter)
}

func TestAttemptTracker_ClearResetsHistory(t *testing.T) {
	ctx := context.Background()
	store := newFakeAttemptStore()
	tracker := newTestTracker(store)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")
	}

	status, err := tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	require.True(t, status.Locked)

	tracker.ClearAttempts(ctx, "shopper@example.com")

	status, err = tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.False(t, status.Locked, "cleared identifier should start fresh")
}

func TestAttemptTracker_WindowBoundary(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	store := newFakeAttemptStore()
	tracker := NewAttemptTracker(store, AttemptTrackerConfig{
		MaxAttempts: 5,
		Window:      window,
	}, slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Four old failures, one fresh one. Clock starts at base and the
	// check runs later, so the old records age across the boundary.
	store.now = func() time.Time { return base }
	tracker.now = func() time.Time { return base }
	for i := 0; i < 4; i++ {
		tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")
	}

	fresh := base.Add(window - time.Millisecond)
	store.now = func() time.Time { return fresh }
	tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")

	// One millisecond before the old attempts hit full window age:
	// all five still count.
	tracker.now = func() time.Time { return fresh }
	status, err := tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.True(t, status.Locked, "attempts aged WINDOW-1ms still count")

	// At exactly full window age the old four fall out.
	tracker.now = func() time.Time { return base.Add(window) }
	status, err = tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.False(t, status.Locked, "attempts aged exactly WINDOW no longer count")
}

func TestAttemptTracker_FailsOpenOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := newFakeAttemptStore()
	tracker := newTestTracker(store)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure(ctx, "shopper@example.com", "iphash", "agent")
	}

	store.err = errors.New("connection refused")

	status, err := tracker.CheckLockout(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.False(t, status.Locked, "store errors must not lock users out")
}

func TestAttemptTracker_NormalizesIdentifier(t *testing.T) {
	ctx := context.Background()
	store := newFakeAttemptStore()
	tracker := newTestTracker(store)

	for i := 0; i < 3; i++ {
		tracker.RecordFailure(ctx, "Shopper@Example.COM", "iphash", "agent")
	}
	for i := 0; i < 2; i++ {
		tracker.RecordFailure(ctx, "  shopper@example.com ", "iphash", "agent")
	}

	status, err := tracker.CheckLockout(ctx, "SHOPPER@example.com")
	require.NoError(t, err)
	assert.True(t, status.Locked, "case and whitespace variants share one history")
}
