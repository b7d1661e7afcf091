package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/vibecord/storefront-auth/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       "user-1",
		Email:    "alice@example.com",
		Username: "alice",
		Roles:    []string{"user"},
	}
}

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 15*time.Minute, 7*24*time.Hour)

	pair, err := tm.GeneratePair(testUser(), "sess-abc")
	if err != nil {
		t.Fatalf("GeneratePair() = %v, want nil", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}

	claims, err := tm.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken(access) = %v, want nil", err)
	}
	if claims.Type != models.TokenTypeAccess {
		t.Errorf("access claims.Type = %q, want %q", claims.Type, models.TokenTypeAccess)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" {
		t.Errorf("unexpected identity claims: %+v", claims)
	}
	if claims.SessionID != "sess-abc" {
		t.Errorf("claims.SessionID = %q, want sess-abc", claims.SessionID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "user" {
		t.Errorf("claims.Roles = %v, want [user]", claims.Roles)
	}

	refreshClaims, err := tm.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateToken(refresh) = %v, want nil", err)
	}
	if refreshClaims.Type != models.TokenTypeRefresh {
		t.Errorf("refresh claims.Type = %q, want %q", refreshClaims.Type, models.TokenTypeRefresh)
	}
	if refreshClaims.SessionID != claims.SessionID {
		t.Error("refresh token must be bound to the same session as the access token")
	}
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", -1*time.Minute, -1*time.Minute)

	pair, err := tm.GeneratePair(testUser(), "sess-abc")
	if err != nil {
		t.Fatalf("GeneratePair() = %v, want nil", err)
	}

	_, err = tm.ValidateToken(pair.AccessToken)
	if !errors.Is(err, models.ErrTokenExpired) {
		t.Errorf("ValidateToken(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 15*time.Minute, time.Hour)
	other := NewTokenManager("other-secret-32-characters-long!", 15*time.Minute, time.Hour)

	pair, err := tm.GeneratePair(testUser(), "sess-abc")
	if err != nil {
		t.Fatalf("GeneratePair() = %v, want nil", err)
	}

	if _, err := other.ValidateToken(pair.AccessToken); err == nil {
		t.Error("ValidateToken() with wrong secret = nil, want error")
	}
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long!!", 15*time.Minute, time.Hour)

	first, err := tm.GeneratePair(testUser(), "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := tm.GeneratePair(testUser(), "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	c1, _ := tm.ValidateToken(first.AccessToken)
	c2, _ := tm.ValidateToken(second.AccessToken)
	if c1.ID == c2.ID {
		t.Error("two access tokens share a jti")
	}
}
