package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkgauth "github.com/vibecord/storefront-auth/pkg/auth"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// ProfileServiceInterface defines the interface for profile reads
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*services.UserResponse, error)
}

// SessionServiceInterface defines the interface for session management
type SessionServiceInterface interface {
	ListSessions(ctx context.Context, userID string) ([]*models.Session, error)
	DeactivateSession(ctx context.Context, sessionID string) error
	ValidateSession(ctx context.Context, sessionID string) (models.SessionValidation, error)
}

// PasswordServiceInterface defines the interface for password changes
type PasswordServiceInterface interface {
	ChangePassword(ctx context.Context, userID, sessionID, currentPassword, newPassword string) error
}

// AccountHandler serves the authenticated user's own account surface
type AccountHandler struct {
	profiles  ProfileServiceInterface
	sessions  SessionServiceInterface
	passwords PasswordServiceInterface
}

func NewAccountHandler(profiles ProfileServiceInterface, sessions SessionServiceInterface, passwords PasswordServiceInterface) *AccountHandler {
	return &AccountHandler{
		profiles:  profiles,
		sessions:  sessions,
		passwords: passwords,
	}
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// SessionResponse is the safe view of a session
type SessionResponse struct {
	ID        string `json:"id"`
	UserAgent string `json:"user_agent"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
	Current   bool   `json:"current"`
}

// GetProfile returns the caller's account
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": profile})
}

// ChangePassword rotates the caller's password after verifying the
// current one. Other sessions are ended; the calling session survives.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	err := h.passwords.ChangePassword(r.Context(), claims.UserID, claims.SessionID,
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		var verr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &verr):
			pkghttp.WriteValidationError(w, verr.Error())
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthFailure,
				"Current password is incorrect")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// ListSessions returns the caller's active sessions, newest first
func (h *AccountHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	sessions, err := h.sessions.ListSessions(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionResponse{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
			ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
			Current:   s.ID == claims.SessionID,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

// RevokeSession deactivates one of the caller's own sessions
func (h *AccountHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		pkghttp.WriteValidationError(w, "Session ID is required")
		return
	}

	// Only the owner may revoke a session; treat other users' session
	// ids like unknown ids.
	sessions, err := h.sessions.ListSessions(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w)
		return
	}
	owned := false
	for _, s := range sessions {
		if s.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		pkghttp.WriteNotFound(w, "Session not found")
		return
	}

	if err := h.sessions.DeactivateSession(r.Context(), sessionID); err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Session revoked"})
}
