package models

import (
	"time"
)

type User struct {
	ID                  string
	Email               string // unique, stored lower-case
	Username            string // unique
	PasswordHash        string
	Roles               []string // e.g. ["user"], ["user", "admin"]
	EmailVerified       bool
	IsActive            bool
	FailedLoginAttempts int        // counter cache, reset on successful login
	LockedUntil         *time.Time // fast-path lockout cache, nil when not locked
	TwoFactorEnabled    bool
	TwoFactorSecret     []byte // AES-256-GCM encrypted TOTP secret
	TwoFactorNonce      []byte // GCM nonce for TwoFactorSecret
	CreatedAt           time.Time
	UpdatedAt           time.Time
	LastLoginAt         *time.Time
}

// HasRole reports whether the user carries the given role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
