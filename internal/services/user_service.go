package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vibecord/storefront-auth/internal/models"
)

// UserRepository defines the interface for user database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementFailedAttempts(ctx context.Context, id string, lockedUntil *time.Time) error
	ResetLoginState(ctx context.Context, id string) error
	SetTwoFactor(ctx context.Context, id string, enabled bool, secret, nonce []byte) error
}

// UserService handles user profile and admin listing logic
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// GetProfile returns the safe view of a user's own account
func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to fetch profile", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return toUserResponse(user), nil
}

// ListUsers returns a page of users for the admin surface
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}
