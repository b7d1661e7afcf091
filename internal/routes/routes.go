package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/handlers"
	"github.com/vibecord/storefront-auth/internal/middleware"
)

// Config carries the handlers and limits the router needs
type Config struct {
	Auth      *handlers.AuthHandler
	Account   *handlers.AccountHandler
	TwoFactor *handlers.TwoFactorHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler

	TokenManager *auth.TokenManager
	Blacklist    auth.BlacklistChecker

	AuthRateLimit     int
	RegisterRateLimit int
	TwoFactorEnabled  bool
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, cfg Config) {
	// Liveness endpoints stay outside every throttle
	router.Get("/api/health", cfg.Health.Health)
	router.Get("/api/system/status", cfg.Health.Status)

	// Public credential endpoints, throttled per source IP
	router.With(middleware.RateLimitByIP(cfg.RegisterRateLimit)).
		Post("/api/auth/register", cfg.Auth.Register)
	router.With(middleware.RateLimitByIP(cfg.AuthRateLimit)).
		Post("/api/auth/login", cfg.Auth.Login)
	router.With(middleware.RateLimitByIP(cfg.AuthRateLimit)).
		Post("/api/auth/refresh", cfg.Auth.Refresh)

	// Authenticated surface
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.TokenManager, cfg.Blacklist))

		r.Post("/api/auth/logout", cfg.Auth.Logout)

		r.Get("/api/account/profile", cfg.Account.GetProfile)
		r.Put("/api/account/password", cfg.Account.ChangePassword)
		r.Get("/api/account/sessions", cfg.Account.ListSessions)
		r.Delete("/api/account/sessions/{sessionID}", cfg.Account.RevokeSession)

		if cfg.TwoFactorEnabled {
			r.Post("/api/account/2fa/setup", cfg.TwoFactor.Setup)
			r.Post("/api/account/2fa/enable", cfg.TwoFactor.Enable)
			r.Post("/api/account/2fa/disable", cfg.TwoFactor.Disable)
		}

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole("admin"))
			r.Get("/api/admin/users", cfg.Admin.ListUsers)
			r.Get("/api/admin/security-logs", cfg.Admin.ListSecurityLogs)
		})
	})
}
