package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
	pkgauth "github.com/vibecord/storefront-auth/pkg/auth"
	pkglogger "github.com/vibecord/storefront-auth/pkg/logger"
)

// TokenBlacklistRepository defines the interface for token revocation
type TokenBlacklistRepository interface {
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// SecurityEventRecorder persists audit-trail events
type SecurityEventRecorder interface {
	Record(ctx context.Context, event *models.SecurityEvent) error
}

// EmailSender delivers account lifecycle emails
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, to, username string) error
}

// AuthService orchestrates registration, login, token refresh and logout
type AuthService struct {
	users       UserRepository
	attempts    *AttemptTracker
	sessions    *SessionRegistry
	blacklist   TokenBlacklistRepository
	events      SecurityEventRecorder
	tm          *auth.TokenManager
	totp        *auth.TOTPManager
	emails      EmailSender
	passwords   pkgauth.Policy
	lockoutTime time.Duration
	maxAttempts int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// AuthServiceDeps bundles the collaborators AuthService needs
type AuthServiceDeps struct {
	Users       UserRepository
	Attempts    *AttemptTracker
	Sessions    *SessionRegistry
	Blacklist   TokenBlacklistRepository
	Events      SecurityEventRecorder
	TokenMgr    *auth.TokenManager
	TOTP        *auth.TOTPManager
	Emails      EmailSender
	Passwords   pkgauth.Policy
	LockoutTime time.Duration
	MaxAttempts int
	Logger      *slog.Logger
	AuditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService. TOTP and Emails may be nil
// when the corresponding features are disabled.
func NewAuthService(deps AuthServiceDeps) *AuthService {
	return &AuthService{
		users:       deps.Users,
		attempts:    deps.Attempts,
		sessions:    deps.Sessions,
		blacklist:   deps.Blacklist,
		events:      deps.Events,
		tm:          deps.TokenMgr,
		totp:        deps.TOTP,
		emails:      deps.Emails,
		passwords:   deps.Passwords,
		lockoutTime: deps.LockoutTime,
		maxAttempts: deps.MaxAttempts,
		logger:      deps.Logger,
		auditLogger: deps.AuditLogger,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	Roles            []string   `json:"roles"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Username:         user.Username,
		Roles:            user.Roles,
		EmailVerified:    user.EmailVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt,
		LastLoginAt:      user.LastLoginAt,
	}
}

// AuthResponse is the payload returned by register and login
type AuthResponse struct {
	User              *UserResponse     `json:"user,omitempty"`
	Tokens            *models.TokenPair `json:"tokens,omitempty"`
	SessionID         string            `json:"session_id,omitempty"`
	RequiresTwoFactor bool              `json:"requires_two_factor,omitempty"`
}

// RegisterInput carries the fields needed to create an account
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	IPHash    string
	UserAgent string
}

// LoginInput carries the fields needed to authenticate
type LoginInput struct {
	Email         string
	Password      string
	TwoFactorCode string
	IPHash        string
	UserAgent     string
}

// Register creates an account and logs the user straight in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if err := s.passwords.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Pre-flight availability check; the unique constraint stays the
	// backstop for races.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username availability", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType:  models.EventUserRegistered,
		UserID:     created.ID,
		Identifier: email,
		IPHash:     in.IPHash,
	})
	s.auditLogger.LogAccountAction("user_registered", created.ID, in.IPHash, nil)

	if s.emails != nil {
		go func(to, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.emails.SendWelcomeEmail(ctx, to, name); err != nil {
				s.logger.Error("failed to send welcome email", slog.Any("error", err))
			}
		}(created.Email, created.Username)
	}

	session, err := s.sessions.CreateSession(ctx, created.ID, in.IPHash, in.UserAgent)
	if err != nil {
		s.logger.Error("failed to create session after registration", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tokens, err := s.tm.GeneratePair(created, session.ID)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		User:      toUserResponse(created),
		Tokens:    tokens,
		SessionID: session.ID,
	}, nil
}

// Login authenticates a user and returns a token pair bound to a fresh
// session. The failure path deliberately returns the same error for an
// unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	status, err := s.attempts.CheckLockout(ctx, email)
	if err != nil {
		return nil, err
	}
	if status.Locked {
		s.recordEvent(ctx, &models.SecurityEvent{
			EventType:  models.EventLoginBlocked,
			Identifier: email,
			IPHash:     in.IPHash,
			Reason:     "too_many_attempts",
		})
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			Identifier:    pkglogger.SanitizedEmail(email),
			IPHash:        in.IPHash,
			Success:       false,
			FailureReason: "too_many_attempts",
		})
		return nil, models.ErrTooManyAttempts
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Burn a comparison so unknown emails cost the same as
			// wrong passwords.
			_ = pkgauth.ComparePassword(dummyPasswordHash, in.Password)
			s.failLogin(ctx, email, in, "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to fetch user for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		s.recordEvent(ctx, &models.SecurityEvent{
			EventType:  models.EventLoginBlocked,
			UserID:     user.ID,
			Identifier: email,
			IPHash:     in.IPHash,
			Reason:     "account_locked",
		})
		return nil, models.ErrTooManyAttempts
	}

	if !user.IsActive {
		s.failLogin(ctx, email, in, "account_inactive")
		return nil, models.ErrAccountInactive
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		s.failLogin(ctx, email, in, "invalid_credentials")
		s.cacheFailure(ctx, user)
		return nil, models.ErrUnauthorized
	}

	if user.TwoFactorEnabled {
		if s.totp == nil {
			// Account enrolled in 2FA while the service runs with it
			// disabled. Refusing is safer than silently skipping the gate.
			s.logger.Error("account requires two-factor but TOTP is not configured",
				slog.String("user_id", user.ID))
			return nil, models.ErrInternalServer
		}
		if in.TwoFactorCode == "" {
			return &AuthResponse{RequiresTwoFactor: true}, nil
		}
		ok, err := s.totp.ValidateCode(user.TwoFactorSecret, user.TwoFactorNonce, in.TwoFactorCode)
		if err != nil {
			s.logger.Error("failed to validate totp code", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if !ok {
			s.failLogin(ctx, email, in, "invalid_two_factor_code")
			s.cacheFailure(ctx, user)
			return nil, models.ErrTwoFactorInvalid
		}
	}

	s.attempts.ClearAttempts(ctx, email)
	if err := s.users.ResetLoginState(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset login state", slog.Any("error", err))
	}

	session, err := s.sessions.CreateSession(ctx, user.ID, in.IPHash, in.UserAgent)
	if err != nil {
		s.logger.Error("failed to create session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tokens, err := s.tm.GeneratePair(user, session.ID)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType:  models.EventLoginSuccess,
		UserID:     user.ID,
		Identifier: email,
		IPHash:     in.IPHash,
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:  "login_success",
		UserID:     user.ID,
		Identifier: pkglogger.SanitizedEmail(email),
		IPHash:     in.IPHash,
		Success:    true,
	})

	return &AuthResponse{
		User:      toUserResponse(user),
		Tokens:    tokens,
		SessionID: session.ID,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is blacklisted so each one can be redeemed once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != models.TokenTypeRefresh {
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token blacklist", slog.Any("error", err))
	} else if revoked {
		return nil, models.ErrTokenRevoked
	}

	validation, err := s.sessions.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		s.logger.Error("failed to validate session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !validation.Valid {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrInternalServer
	}
	if !user.IsActive {
		return nil, models.ErrAccountInactive
	}

	if err := s.blacklist.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to blacklist rotated refresh token", slog.Any("error", err))
	}

	tokens, err := s.tm.GeneratePair(user, claims.SessionID)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType: models.EventTokenRefreshed,
		UserID:    user.ID,
	})

	return tokens, nil
}

// Logout revokes the access token, optionally the paired refresh token,
// and deactivates the session the tokens are bound to.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error {
	if err := s.blacklist.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to blacklist access token", slog.Any("error", err))
	}

	if refreshToken != "" {
		if rc, err := s.tm.ValidateToken(refreshToken); err == nil && rc.Type == models.TokenTypeRefresh {
			if err := s.blacklist.Blacklist(ctx, rc.ID, rc.ExpiresAt.Time); err != nil {
				s.logger.Error("failed to blacklist refresh token", slog.Any("error", err))
			}
		}
	}

	if err := s.sessions.DeactivateSession(ctx, claims.SessionID); err != nil {
		s.logger.Error("failed to deactivate session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType: models.EventLogout,
		UserID:    claims.UserID,
	})

	return nil
}

// ChangePassword verifies the caller's current password, stores a new
// hash and ends every other session the user has. The calling session
// stays alive; already-issued tokens expire on their own schedule.
func (s *AuthService) ChangePassword(ctx context.Context, userID, sessionID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to fetch user for password change", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.recordEvent(ctx, &models.SecurityEvent{
			EventType:  models.EventLoginFailed,
			UserID:     user.ID,
			Identifier: user.Email,
			Reason:     "password_change_wrong_current",
		})
		return models.ErrUnauthorized
	}

	if err := s.passwords.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to store new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.DeactivateOthers(ctx, user.ID, sessionID); err != nil {
		s.logger.Error("failed to end other sessions after password change",
			slog.Any("error", err))
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType:  models.EventPasswordChanged,
		UserID:     user.ID,
		Identifier: user.Email,
	})
	s.auditLogger.LogAccountAction("password_changed", user.ID, "", nil)

	return nil
}

// failLogin records a failed attempt in the attempt store, the audit
// trail and the structured log. Never returns an error: bookkeeping
// must not mask the authentication result.
func (s *AuthService) failLogin(ctx context.Context, email string, in LoginInput, reason string) {
	s.attempts.RecordFailure(ctx, email, in.IPHash, in.UserAgent)
	s.recordEvent(ctx, &models.SecurityEvent{
		EventType:  models.EventLoginFailed,
		Identifier: email,
		IPHash:     in.IPHash,
		Reason:     reason,
	})
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Identifier:    pkglogger.SanitizedEmail(email),
		IPHash:        in.IPHash,
		Success:       false,
		FailureReason: reason,
	})
}

// cacheFailure bumps the counter cached on the user row and sets
// locked_until once the threshold is crossed. The attempt store stays
// the source of truth; this cache just makes the lock visible on the
// user record.
func (s *AuthService) cacheFailure(ctx context.Context, user *models.User) {
	var lockedUntil *time.Time
	if user.FailedLoginAttempts+1 >= s.maxAttempts {
		t := time.Now().Add(s.lockoutTime)
		lockedUntil = &t
	}
	if err := s.users.IncrementFailedAttempts(ctx, user.ID, lockedUntil); err != nil {
		s.logger.Error("failed to update login failure cache", slog.Any("error", err))
	}
}

func (s *AuthService) recordEvent(ctx context.Context, event *models.SecurityEvent) {
	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Error("failed to record security event",
			slog.String("event_type", event.EventType),
			slog.Any("error", err))
	}
}

// dummyPasswordHash is a bcrypt hash of a random throwaway value, used
// to equalize response timing when the email is unknown.
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
