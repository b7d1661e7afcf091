package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the claims payload for access and refresh tokens
type TokenClaims struct {
	Type      string   `json:"type"`
	UserID    string   `json:"user_id"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair bundles the access and refresh tokens returned on login/refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
