package http

import (
	"encoding/json"
	"net/http"
)

// Error taxonomy codes surfaced to clients
const (
	CodeValidation       = "VALIDATION"
	CodeConflict         = "CONFLICT"
	CodeAuthFailure      = "AUTH_FAILURE"
	CodeLockout          = "LOCKOUT"
	CodeTokenInvalid     = "TOKEN_INVALID"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// ErrorResponse is the standard API error body
type ErrorResponse struct {
	Error string `json:"error"` // human-readable message
	Code  string `json:"code"`  // machine-readable taxonomy code
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not recoverable at this point
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// WriteJSON writes an arbitrary JSON response body
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// Common error writers for consistency

func WriteValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidation, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

func WriteAuthFailure(w http.ResponseWriter) {
	// Always the same generic message, regardless of which check failed
	WriteError(w, http.StatusUnauthorized, CodeAuthFailure, "Invalid email or password")
}

func WriteLockout(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, CodeLockout,
		"Too many failed login attempts. Please try again later.")
}

func WriteTokenInvalid(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeTokenInvalid, "Invalid token")
}

func WriteTokenExpired(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeTokenExpired, "Token has expired")
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, CodeStoreUnavailable, "Internal server error")
}
