package models

import "time"

// LoginAttempt represents a single failed login attempt. Attempts are
// append-only; lockout state is derived from the count of attempts inside the
// trailing window, never from a stored flag.
type LoginAttempt struct {
	ID         string
	Identifier string // lower-cased email
	IPHash     string // SHA-256 of the client IP
	UserAgent  string
	OccurredAt time.Time // store-assigned
	ExpiresAt  time.Time // physical retention bound, enforced by cleanup
}
