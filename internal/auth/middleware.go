package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/vibecord/storefront-auth/internal/models"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
	// TokenContextKey is the key for storing the raw bearer token in context
	TokenContextKey contextKey = "token"
)

// BlacklistChecker reports whether a token's jti has been blacklisted
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Middleware validates bearer tokens and injects claims into the request
// context. Refresh tokens are rejected here; they are only accepted by the
// refresh endpoint.
func Middleware(tm *TokenManager, blacklist BlacklistChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteTokenInvalid(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteTokenInvalid(w)
				return
			}

			tokenString := parts[1]

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				if err == models.ErrTokenExpired {
					pkghttp.WriteTokenExpired(w)
					return
				}
				pkghttp.WriteTokenInvalid(w)
				return
			}

			if claims.Type == models.TokenTypeRefresh {
				pkghttp.WriteTokenInvalid(w)
				return
			}

			if blacklist != nil && claims.ID != "" {
				revoked, err := blacklist.IsBlacklisted(r.Context(), claims.ID)
				if err != nil {
					// Fail open on blacklist store errors: expired and
					// malformed tokens are already rejected above.
					revoked = false
				}
				if revoked {
					pkghttp.WriteTokenInvalid(w)
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces role-based access using the roles claim
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteTokenInvalid(w)
				return
			}

			for _, have := range claims.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, "insufficient permissions")
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetTokenFromContext extracts the raw bearer token from request context
func GetTokenFromContext(r *http.Request) string {
	token, ok := r.Context().Value(TokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
