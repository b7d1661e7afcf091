package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkgauth "github.com/vibecord/storefront-auth/pkg/auth"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResponse, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"two_factor_code,omitempty" validate:"omitempty,len=6,numeric"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally carries the refresh token so both halves of
// the pair can be revoked together.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		IPHash:    h.clientIPHash(r),
		UserAgent: pkghttp.TruncateUserAgent(r.UserAgent()),
	})
	if err != nil {
		var verr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &verr):
			pkghttp.WriteValidationError(w, verr.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with that email or username already exists")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), services.LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		TwoFactorCode: req.TwoFactorCode,
		IPHash:        h.clientIPHash(r),
		UserAgent:     pkghttp.TruncateUserAgent(r.UserAgent()),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTooManyAttempts):
			pkghttp.WriteLockout(w)
		case errors.Is(err, models.ErrTwoFactorInvalid):
			pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthFailure, "Invalid two-factor code")
		case errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrAccountInactive):
			// Same response for bad credentials and disabled accounts,
			// so the endpoint cannot be used to probe account state.
			pkghttp.WriteAuthFailure(w)
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenExpired):
			pkghttp.WriteTokenExpired(w)
		case errors.Is(err, models.ErrTokenRevoked),
			errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrAccountInactive):
			pkghttp.WriteTokenInvalid(w)
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}

// Logout revokes the caller's tokens and ends their session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	// Body is optional; absence just means the refresh token is left
	// to expire on its own.
	var req LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.service.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) clientIPHash(r *http.Request) string {
	return pkghttp.HashIP(pkghttp.ExtractClientIP(r, h.ipConfig))
}
