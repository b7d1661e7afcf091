package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vibecord/storefront-auth/internal/models"
)

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// GeneratePair issues an access and refresh token bound to a session
func (tm *TokenManager) GeneratePair(user *models.User, sessionID string) (*models.TokenPair, error) {
	access, err := tm.generate(user, sessionID, models.TokenTypeAccess, tm.accessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refresh, err := tm.generate(user, sessionID, models.TokenTypeRefresh, tm.refreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (tm *TokenManager) generate(user *models.User, sessionID, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:      tokenType,
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     user.Roles,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims. Expired tokens
// return models.ErrTokenExpired so callers can report the precise reason.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeAccess && claims.Type != models.TokenTypeRefresh {
		return nil, fmt.Errorf("invalid token: unknown type %q", claims.Type)
	}

	return claims, nil
}
