package models

import "time"

// Security event types recorded by the auth flow
const (
	EventLoginSuccess    = "LOGIN_SUCCESS"
	EventLoginFailed     = "LOGIN_FAILED"
	EventLoginBlocked    = "LOGIN_BLOCKED"
	EventTokenRefreshed  = "TOKEN_REFRESHED"
	EventLogout          = "LOGOUT"
	EventUserRegistered  = "USER_REGISTERED"
	EventTwoFactorSetup  = "TWO_FACTOR_SETUP"
	EventPasswordChanged = "PASSWORD_CHANGED"
)

// SecurityEvent is a persisted security log entry, readable via the admin API
type SecurityEvent struct {
	ID         string
	EventType  string
	UserID     string // empty when the actor could not be identified
	Identifier string // lower-cased email when relevant
	IPHash     string
	Reason     string
	OccurredAt time.Time
}
