package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountLocked   = errors.New("account is temporarily locked")
	ErrAccountInactive = errors.New("account is inactive")

	// Login flow errors
	ErrTooManyAttempts   = errors.New("too many failed login attempts")
	ErrTwoFactorRequired = errors.New("two-factor code required")
	ErrTwoFactorInvalid  = errors.New("invalid two-factor code")

	// Token errors
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenRevoked = errors.New("token has been revoked")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
)
