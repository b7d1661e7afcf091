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

func TestTwoFactorSetup_ReturnsQR(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		SetupFunc: func(ctx context.Context, userID string) (*services.TwoFactorSetup, error) {
			return &services.TwoFactorSetup{QRCodeDataURL: "data:image/png;base64,abc"}, nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/account/2fa/setup", nil)
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Setup(w, req)

	var resp struct {
		Data services.TwoFactorSetup `json:"data"`
	}
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Contains(t, resp.Data.QRCodeDataURL, "data:image/png;base64,")
}

func TestTwoFactorSetup_AlreadyEnabled(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		SetupFunc: func(ctx context.Context, userID string) (*services.TwoFactorSetup, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/account/2fa/setup", nil)
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Setup(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusConflict, pkghttp.CodeConflict)
}

func TestTwoFactorEnable_ValidCode(t *testing.T) {
	var gotCode string
	mock := &handlers.MockTwoFactorService{
		EnableFunc: func(ctx context.Context, userID, code string) error {
			gotCode = code
			return nil
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/account/2fa/enable", handlers.TwoFactorCodeRequest{Code: "123456"})
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Enable(w, req)

	handlers.AssertJSONResponse(t, w, http.StatusOK, nil)
	assert.Equal(t, "123456", gotCode)
}

func TestTwoFactorEnable_BadCodeFormat(t *testing.T) {
	handler := handlers.NewTwoFactorHandler(&handlers.MockTwoFactorService{})
	req := handlers.NewTestRequest(t, "POST", "/api/account/2fa/enable", handlers.TwoFactorCodeRequest{Code: "12ab"})
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Enable(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, pkghttp.CodeValidation)
}

func TestTwoFactorDisable_WrongCode(t *testing.T) {
	mock := &handlers.MockTwoFactorService{
		DisableFunc: func(ctx context.Context, userID, code string) error {
			return models.ErrTwoFactorInvalid
		},
	}

	handler := handlers.NewTwoFactorHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/api/account/2fa/disable", handlers.TwoFactorCodeRequest{Code: "000000"})
	req = handlers.WithAuthContext(req, "user-1", "session-1")

	w := httptest.NewRecorder()
	handler.Disable(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, pkghttp.CodeAuthFailure)
}
