package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// TwoFactorServiceInterface defines the interface for TOTP lifecycle
type TwoFactorServiceInterface interface {
	Setup(ctx context.Context, userID string) (*services.TwoFactorSetup, error)
	Enable(ctx context.Context, userID, code string) error
	Disable(ctx context.Context, userID, code string) error
}

// TwoFactorHandler serves TOTP enrollment endpoints
type TwoFactorHandler struct {
	service TwoFactorServiceInterface
}

func NewTwoFactorHandler(service TwoFactorServiceInterface) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// TwoFactorCodeRequest carries a TOTP code for enable/disable
type TwoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Setup begins TOTP enrollment and returns the provisioning QR code
func (h *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	setup, err := h.service.Setup(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Two-factor authentication is already enabled")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": setup})
}

// Enable finishes enrollment by verifying a code from the authenticator
func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.applyCode(w, r, h.service.Enable, "Two-factor authentication enabled")
}

// Disable turns off 2FA after verifying a current code
func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.applyCode(w, r, h.service.Disable, "Two-factor authentication disabled")
}

func (h *TwoFactorHandler) applyCode(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, code string) error, message string) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteTokenInvalid(w)
		return
	}

	var req TwoFactorCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteValidationError(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	if err := op(r.Context(), claims.UserID, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrTwoFactorInvalid):
			pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthFailure, "Invalid two-factor code")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Two-factor authentication is already enabled")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteValidationError(w, "Two-factor setup has not been started")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}
