package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vibecord/storefront-auth/internal/models"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Deactivate(ctx context.Context, id string) error
	ListActiveByUser(ctx context.Context, userID string) ([]*models.Session, error)
	DeactivateMany(ctx context.Context, ids []string) error
}

// SessionRegistryConfig holds configuration for session lifecycle
type SessionRegistryConfig struct {
	TTL         time.Duration
	MaxSessions int
}

// SessionRegistry owns the lifecycle of login sessions: creation with a
// per-user cap, deactivation, and validity checks with lazy expiry.
type SessionRegistry struct {
	repo   SessionRepository
	config SessionRegistryConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionRegistry creates a new SessionRegistry
func NewSessionRegistry(repo SessionRepository, config SessionRegistryConfig, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// newSessionID returns 16 random bytes hex-encoded (32 chars)
func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateSession registers a new session for the user and evicts the
// oldest active sessions if the user is over the cap. The cap is soft:
// the new session is created first, so a failed eviction never costs
// the user their fresh login.
func (r *SessionRegistry) CreateSession(ctx context.Context, userID, ipHash, userAgent string) (*models.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        id,
		UserID:    userID,
		IPHash:    ipHash,
		UserAgent: userAgent,
		IsActive:  true,
		ExpiresAt: r.now().Add(r.config.TTL),
	}

	if err := r.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	r.evictExcess(ctx, userID)

	return session, nil
}

// evictExcess deactivates the oldest active sessions beyond the cap.
// Eviction failures are logged, not returned: the new session already
// exists and the sweep will reconcile later.
func (r *SessionRegistry) evictExcess(ctx context.Context, userID string) {
	sessions, err := r.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		r.logger.Error("failed to list sessions for eviction", slog.Any("error", err))
		return
	}

	if len(sessions) <= r.config.MaxSessions {
		return
	}

	// ListActiveByUser returns newest first; everything past the cap
	// is the oldest excess.
	var evict []string
	for _, s := range sessions[r.config.MaxSessions:] {
		evict = append(evict, s.ID)
	}

	if err := r.repo.DeactivateMany(ctx, evict); err != nil {
		r.logger.Error("failed to evict excess sessions",
			slog.Int("count", len(evict)),
			slog.Any("error", err))
		return
	}

	r.logger.Info("evicted excess sessions",
		slog.String("user_id", userID),
		slog.Int("count", len(evict)))
}

// DeactivateSession marks a session inactive. Deactivating a session
// that is already inactive or unknown is not an error.
func (r *SessionRegistry) DeactivateSession(ctx context.Context, sessionID string) error {
	return r.repo.Deactivate(ctx, sessionID)
}

// DeactivateAllForUser ends every active session the user has
func (r *SessionRegistry) DeactivateAllForUser(ctx context.Context, userID string) error {
	sessions, err := r.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return r.repo.DeactivateMany(ctx, ids)
}

// DeactivateOthers ends every active session the user has except the one
// given, so a password change doesn't log the caller out
func (r *SessionRegistry) DeactivateOthers(ctx context.Context, userID, keepSessionID string) error {
	sessions, err := r.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if s.ID != keepSessionID {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return r.repo.DeactivateMany(ctx, ids)
}

// ValidateSession checks a session's standing. Expiry is lazy: an
// expired-but-active session is deactivated here, at the moment it is
// observed, not by a background timer.
func (r *SessionRegistry) ValidateSession(ctx context.Context, sessionID string) (models.SessionValidation, error) {
	session, err := r.repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.SessionValidation{Valid: false, Reason: models.SessionNotFound}, nil
		}
		return models.SessionValidation{}, err
	}

	if !session.IsActive {
		return models.SessionValidation{Valid: false, Reason: models.SessionInactive}, nil
	}

	if !r.now().Before(session.ExpiresAt) {
		if err := r.repo.Deactivate(ctx, sessionID); err != nil {
			r.logger.Error("failed to deactivate expired session", slog.Any("error", err))
		}
		return models.SessionValidation{Valid: false, Reason: models.SessionExpired}, nil
	}

	return models.SessionValidation{Valid: true}, nil
}

// ListSessions returns the user's active sessions, newest first
func (r *SessionRegistry) ListSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	return r.repo.ListActiveByUser(ctx, userID)
}
