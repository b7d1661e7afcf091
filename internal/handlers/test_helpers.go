package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/services"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// NewTestRequest creates an HTTP request with a JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to the request context for testing
// authenticated endpoints
func WithAuthContext(req *http.Request, userID, sessionID string, roles ...string) *http.Request {
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	claims := &models.TokenClaims{
		Type:      models.TokenTypeAccess,
		UserID:    userID,
		Email:     "shopper@example.com",
		Roles:     roles,
		SessionID: sessionID,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks status and decodes the JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "failed to decode response JSON")
	}
}

// AssertErrorResponse checks status and the taxonomy code of an error body
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "failed to decode error response")
	assert.Equal(t, expectedCode, resp.Code, "error code mismatch")
	assert.NotEmpty(t, resp.Error, "error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, in services.RegisterInput) (*services.AuthResponse, error)
	LoginFunc    func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	LogoutFunc   func(ctx context.Context, claims *models.TokenClaims, refreshToken string) error
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, in)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, claims, refreshToken)
}

// MockPasswordService implements PasswordServiceInterface for testing
type MockPasswordService struct {
	ChangePasswordFunc func(ctx context.Context, userID, sessionID, currentPassword, newPassword string) error
}

func (m *MockPasswordService) ChangePassword(ctx context.Context, userID, sessionID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, sessionID, currentPassword, newPassword)
}

// MockProfileService implements ProfileServiceInterface for testing
type MockProfileService struct {
	GetProfileFunc func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, userID)
}

// MockSessionService implements SessionServiceInterface for testing
type MockSessionService struct {
	ListSessionsFunc      func(ctx context.Context, userID string) ([]*models.Session, error)
	DeactivateSessionFunc func(ctx context.Context, sessionID string) error
	ValidateSessionFunc   func(ctx context.Context, sessionID string) (models.SessionValidation, error)
}

func (m *MockSessionService) ListSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	if m.ListSessionsFunc == nil {
		return []*models.Session{}, nil
	}
	return m.ListSessionsFunc(ctx, userID)
}

func (m *MockSessionService) DeactivateSession(ctx context.Context, sessionID string) error {
	if m.DeactivateSessionFunc == nil {
		return nil
	}
	return m.DeactivateSessionFunc(ctx, sessionID)
}

func (m *MockSessionService) ValidateSession(ctx context.Context, sessionID string) (models.SessionValidation, error) {
	if m.ValidateSessionFunc == nil {
		return models.SessionValidation{Valid: true}, nil
	}
	return m.ValidateSessionFunc(ctx, sessionID)
}

// MockTwoFactorService implements TwoFactorServiceInterface for testing
type MockTwoFactorService struct {
	SetupFunc   func(ctx context.Context, userID string) (*services.TwoFactorSetup, error)
	EnableFunc  func(ctx context.Context, userID, code string) error
	DisableFunc func(ctx context.Context, userID, code string) error
}

func (m *MockTwoFactorService) Setup(ctx context.Context, userID string) (*services.TwoFactorSetup, error) {
	if m.SetupFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.SetupFunc(ctx, userID)
}

func (m *MockTwoFactorService) Enable(ctx context.Context, userID, code string) error {
	if m.EnableFunc == nil {
		return models.ErrTwoFactorInvalid
	}
	return m.EnableFunc(ctx, userID, code)
}

func (m *MockTwoFactorService) Disable(ctx context.Context, userID, code string) error {
	if m.DisableFunc == nil {
		return models.ErrTwoFactorInvalid
	}
	return m.DisableFunc(ctx, userID, code)
}
