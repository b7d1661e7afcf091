package models

import "time"

// Session validation failure reasons
const (
	SessionNotFound = "NOT_FOUND"
	SessionInactive = "INACTIVE"
	SessionExpired  = "EXPIRED"
)

// Session represents an active login session. The ID is an opaque handle,
// separate from the JWTs issued for the session.
type Session struct {
	ID        string
	UserID    string
	IPHash    string // SHA-256 of the client IP, never the raw address
	UserAgent string // truncated, stored for display in the session list only
	IsActive  bool
	CreatedAt time.Time // store-assigned
	ExpiresAt time.Time
}

// SessionValidation is the result of checking a session handle
type SessionValidation struct {
	Valid  bool
	Reason string // NOT_FOUND, INACTIVE or EXPIRED when Valid is false
}
