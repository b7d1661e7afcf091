package services

import (
	"context"
	"log/slog"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
)

// TwoFactorSetup is returned when a user begins TOTP enrollment
type TwoFactorSetup struct {
	QRCodeDataURL string `json:"qr_code"`
}

// TwoFactorService manages TOTP enrollment and teardown. Enrollment is
// two-step: Setup stores an encrypted secret but leaves 2FA off until
// the user proves possession of it with a valid code in Enable.
type TwoFactorService struct {
	users  UserRepository
	totp   *auth.TOTPManager
	events SecurityEventRecorder
	logger *slog.Logger
}

func NewTwoFactorService(users UserRepository, totp *auth.TOTPManager, events SecurityEventRecorder, logger *slog.Logger) *TwoFactorService {
	return &TwoFactorService{
		users:  users,
		totp:   totp,
		events: events,
		logger: logger,
	}
}

// Setup generates a fresh TOTP secret for the user and returns the
// provisioning QR code. Calling Setup again before Enable replaces the
// pending secret.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, models.ErrConflict
	}

	encrypted, nonce, qr, err := s.totp.GenerateSecretWithQR(user.Email)
	if err != nil {
		s.logger.Error("failed to generate totp secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.users.SetTwoFactor(ctx, userID, false, encrypted, nonce); err != nil {
		s.logger.Error("failed to store totp secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TwoFactorSetup{QRCodeDataURL: qr}, nil
}

// Enable turns 2FA on after the user verifies a code from their
// authenticator against the pending secret.
func (s *TwoFactorService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return models.ErrConflict
	}
	if len(user.TwoFactorSecret) == 0 {
		return models.ErrBadRequest
	}

	ok, err := s.totp.ValidateCode(user.TwoFactorSecret, user.TwoFactorNonce, code)
	if err != nil {
		s.logger.Error("failed to validate totp code", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !ok {
		return models.ErrTwoFactorInvalid
	}

	if err := s.users.SetTwoFactor(ctx, userID, true, user.TwoFactorSecret, user.TwoFactorNonce); err != nil {
		s.logger.Error("failed to enable two-factor", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordEvent(ctx, &models.SecurityEvent{
		EventType: models.EventTwoFactorSetup,
		UserID:    userID,
	})

	return nil
}

// Disable turns 2FA off. The caller must present a valid current code,
// so a stolen session alone cannot strip the second factor.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return models.ErrBadRequest
	}

	ok, err := s.totp.ValidateCode(user.TwoFactorSecret, user.TwoFactorNonce, code)
	if err != nil {
		s.logger.Error("failed to validate totp code", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !ok {
		return models.ErrTwoFactorInvalid
	}

	if err := s.users.SetTwoFactor(ctx, userID, false, nil, nil); err != nil {
		s.logger.Error("failed to disable two-factor", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

func (s *TwoFactorService) recordEvent(ctx context.Context, event *models.SecurityEvent) {
	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Error("failed to record security event",
			slog.String("event_type", event.EventType),
			slog.Any("error", err))
	}
}
