package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vibecord/storefront-auth/internal/handlers"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

func TestRegister_Created(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.AuthResponse, error) {
			assert.Equal(t, "new@example.com", in.Email)
			assert.NotEmpty(t, in.IPHash)
			return &services.AuthResponse{
				User:      &services.UserResponse{ID: "user-new", Email: in.Email},
				Tokens:    &models.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				SessionID: "abcdef0123456789abcdef0123456789",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/register", handlers.RegisterRequest{
		Email:    "new@example.com",
		Username: "newuser",
		Password: "ValidEnough9!",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "user-new", resp.User.ID)
	assert.Equal(t, "access", resp.Tokens.AccessToken)
}

func TestRegister_Duplicate(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.AuthResponse, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/register", handlers.RegisterRequest{
		Email:    "taken@example.com",
		Username: "taken",
		Password: "ValidEnough9!",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusConflict, pkghttp.CodeConflict)
}

func TestRegister_InvalidBody(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)

	cases := []struct {
		name string
		body interface{}
	}{
		{"missing email", handlers.RegisterRequest{Username: "user", Password: "ValidEnough9!"}},
		{"bad email", handlers.RegisterRequest{Email: "not-an-email", Username: "user", Password: "x"}},
		{"short username", handlers.RegisterRequest{Email: "a@b.com", Username: "ab", Password: "ValidEnough9!"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := handlers.NewTestRequest(t, "POST", "/api/auth/register", tc.body)
			w := httptest.NewRecorder()
			handler.Register(w, req)
			handlers.AssertErrorResponse(t, w, http.StatusBadRequest, pkghttp.CodeValidation)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
			return &services.AuthResponse{
				User:      &services.UserResponse{ID: "user-1"},
				Tokens:    &models.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				SessionID: "abcdef0123456789abcdef0123456789",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "shopper@example.com",
		Password: "CorrectHorse9!",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.SessionID)
}

func TestLogin_BadCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "shopper@example.com",
		Password: "wrong",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeAuthFailure)
}

func TestLogin_InactiveAccountLooksLikeBadCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
			return nil, models.ErrAccountInactive
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "disabled@example.com",
		Password: "CorrectHorse9!",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeAuthFailure)
}

func TestLogin_Lockout(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
			return nil, models.ErrTooManyAttempts
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "shopper@example.com",
		Password: "CorrectHorse9!",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusTooManyRequests, pkghttp.CodeLockout)
}

func TestLogin_RequiresTwoFactor(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
			return &services.AuthResponse{RequiresTwoFactor: true}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "shopper@example.com",
		Password: "CorrectHorse9!",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.RequiresTwoFactor)
	assert.Nil(t, resp.Tokens)
}

func TestRefresh_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
			assert.Equal(t, "old-refresh", refreshToken)
			return &models.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "old-refresh",
	})

	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	var resp struct {
		Tokens models.TokenPair `json:"tokens"`
	}
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "new-access", resp.Tokens.AccessToken)
}

func TestRefresh_Expired(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
			return nil, models.ErrTokenExpired
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "stale",
	})

	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeTokenExpired)
}

func TestRefresh_Revoked(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
			return nil, models.ErrTokenRevoked
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshRequest{
		RefreshToken: "revoked",
	})

	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeTokenInvalid)
}

func TestLogout_Success(t *testing.T) {
	var deactivated string
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, claims *models.TokenClaims, refreshToken string) error {
			deactivated = claims.SessionID
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/logout", nil)
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	handlers.AssertJSONResponse(t, w, http.StatusOK, nil)
	assert.Equal(t, "session-1", deactivated)
}

func TestLogout_NoAuthContext(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/logout", nil)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeTokenInvalid)
}
