package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vibecord/storefront-auth/internal/models"
)

// AttemptRepository defines the interface for login attempt persistence
type AttemptRepository interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) error
	CountSince(ctx context.Context, identifier string, cutoff time.Time) (int, error)
	DeleteForIdentifier(ctx context.Context, identifier string) error
}

// AttemptTrackerConfig holds configuration for failed-login tracking
type AttemptTrackerConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// LockoutStatus is the result of a lockout check
type LockoutStatus struct {
	Locked     bool
	RetryAfter time.Duration
}

// AttemptTracker counts failed login attempts per identifier inside a
// sliding window and reports when an identifier should be locked out.
//
// The store is the source of truth; the tracker holds no per-identifier
// state, so multiple instances sharing one database agree on lockouts.
type AttemptTracker struct {
	repo   AttemptRepository
	config AttemptTrackerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAttemptTracker creates a new AttemptTracker
func NewAttemptTracker(repo AttemptRepository, config AttemptTrackerConfig, logger *slog.Logger) *AttemptTracker {
	return &AttemptTracker{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// normalizeIdentifier folds the identifier so "User@Example.com" and
// "user@example.com" share one attempt history.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// RecordFailure appends a failed attempt for the identifier. Storage
// errors are logged and swallowed: a write failure must not turn into
// a login failure for the user.
func (t *AttemptTracker) RecordFailure(ctx context.Context, identifier, ipHash, userAgent string) {
	attempt := &models.LoginAttempt{
		Identifier: normalizeIdentifier(identifier),
		IPHash:     ipHash,
		UserAgent:  userAgent,
		// Keep rows long enough for any window query that could still
		// see them, then let the sweeper reclaim.
		ExpiresAt: t.now().Add(2 * t.config.Window),
	}

	if err := t.repo.Record(ctx, attempt); err != nil {
		t.logger.Error("failed to record login attempt", slog.Any("error", err))
	}
}

// CheckLockout reports whether the identifier has reached the failure
// threshold within the window. An attempt aged exactly one full window
// no longer counts.
//
// Fails open: if the store is unreachable the check allows the login
// rather than locking every user out.
func (t *AttemptTracker) CheckLockout(ctx context.Context, identifier string) (LockoutStatus, error) {
	identifier = normalizeIdentifier(identifier)
	cutoff := t.now().Add(-t.config.Window)

	count, err := t.repo.CountSince(ctx, identifier, cutoff)
	if err != nil {
		t.logger.Error("failed to check lockout, allowing attempt", slog.Any("error", err))
		return LockoutStatus{Locked: false}, nil
	}

	if count >= t.config.MaxAttempts {
		t.logger.Warn("identifier locked out",
			slog.Int("failed_attempts", count),
			slog.Duration("window", t.config.Window))
		return LockoutStatus{Locked: true, RetryAfter: t.config.Window}, nil
	}

	return LockoutStatus{Locked: false}, nil
}

// ClearAttempts wipes the identifier's failure history after a
// successful login, so a user who eventually remembers their password
// starts from a clean slate.
func (t *AttemptTracker) ClearAttempts(ctx context.Context, identifier string) {
	identifier = normalizeIdentifier(identifier)
	if err := t.repo.DeleteForIdentifier(ctx, identifier); err != nil {
		t.logger.Error("failed to clear login attempts", slog.Any("error", err))
	}
}
