package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/vibecord/storefront-auth/internal/auth"
	"github.com/vibecord/storefront-auth/internal/background"
	"github.com/vibecord/storefront-auth/internal/config"
	"github.com/vibecord/storefront-auth/internal/database"
	"github.com/vibecord/storefront-auth/internal/handlers"
	"github.com/vibecord/storefront-auth/internal/middleware"
	"github.com/vibecord/storefront-auth/internal/models"
	"github.com/vibecord/storefront-auth/internal/repositories"
	"github.com/vibecord/storefront-auth/internal/routes"
	"github.com/vibecord/storefront-auth/internal/services"
	pkgauth "github.com/vibecord/storefront-auth/pkg/auth"
	pkghttp "github.com/vibecord/storefront-auth/pkg/http"
	pkglogger "github.com/vibecord/storefront-auth/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	eventRepo := repositories.NewSecurityEventRepository(db)

	// Token blacklist: Redis when configured, Postgres otherwise
	var blacklistRepo services.TokenBlacklistRepository
	var blacklistSweeper background.Sweeper
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		redisBlacklist := repositories.NewRedisBlacklistRepository(redis.NewClient(opts))
		blacklistRepo = redisBlacklist
		blacklistSweeper = redisBlacklist
		logger.Info("token blacklist backed by redis")
	} else {
		pgBlacklist := repositories.NewBlacklistRepository(db)
		blacklistRepo = pgBlacklist
		blacklistSweeper = pgBlacklist
	}

	// Core auth plumbing
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	auditLogger := pkglogger.NewAuditLogger(logger)
	passwordPolicy := pkgauth.Policy{
		MinLength:  cfg.Security.PasswordMinLength,
		BcryptCost: cfg.Security.BcryptCost,
	}

	attemptTracker := services.NewAttemptTracker(attemptRepo, services.AttemptTrackerConfig{
		MaxAttempts: cfg.Security.MaxLoginAttempts,
		Window:      cfg.Security.LoginAttemptWindow,
	}, logger)

	sessionRegistry := services.NewSessionRegistry(sessionRepo, services.SessionRegistryConfig{
		TTL:         cfg.Security.SessionTTL,
		MaxSessions: cfg.Security.MaxActiveSessions,
	}, logger)

	var totpManager *auth.TOTPManager
	if cfg.Security.TwoFactorEnabled {
		totpManager, err = auth.NewTOTPManager([]byte(cfg.Security.TOTPEncryptionKey), cfg.Security.TOTPIssuer)
		if err != nil {
			logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var emailService services.EmailSender
	if cfg.Email.VerificationEnabled {
		ses, err := services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.StoreName,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		emailService = ses
	}

	// Services
	authService := services.NewAuthService(services.AuthServiceDeps{
		Users:       userRepo,
		Attempts:    attemptTracker,
		Sessions:    sessionRegistry,
		Blacklist:   blacklistRepo,
		Events:      eventRepo,
		TokenMgr:    tokenManager,
		TOTP:        totpManager,
		Emails:      emailService,
		Passwords:   passwordPolicy,
		LockoutTime: cfg.Security.LoginLockoutTime,
		MaxAttempts: cfg.Security.MaxLoginAttempts,
		Logger:      logger,
		AuditLogger: auditLogger,
	})
	userService := services.NewUserService(userRepo, logger)
	twoFactorService := services.NewTwoFactorService(userRepo, totpManager, eventRepo, logger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	accountHandler := handlers.NewAccountHandler(userService, sessionRegistry, authService)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService)
	adminHandler := handlers.NewAdminHandler(userService, eventRepo)
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)

	// Bootstrap first admin account if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootCtx, userRepo, passwordPolicy, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	// Retention sweeps
	cleanupManager := background.NewCleanupManager(logger, cfg.Auth.CleanupInterval)
	cleanupManager.Register("login_attempts", attemptRepo)
	cleanupManager.Register("blacklisted_tokens", blacklistSweeper)
	cleanupManager.Register("sessions", sessionRepo)

	// Router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(middleware.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Config{
		Auth:              authHandler,
		Account:           accountHandler,
		TwoFactor:         twoFactorHandler,
		Admin:             adminHandler,
		Health:            healthHandler,
		TokenManager:      tokenManager,
		Blacklist:         blacklistRepo,
		AuthRateLimit:     cfg.Security.AuthRateLimitMax,
		RegisterRateLimit: cfg.Security.RegisterRateLimit,
		TwoFactorEnabled:  cfg.Security.TwoFactorEnabled,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAdminUser creates the first admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no account with that email exists yet.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, policy pkgauth.Policy, logger *slog.Logger) error {
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	if _, err := userRepo.GetByEmail(ctx, adminEmail); err == nil {
		return nil
	}

	hash, err := policy.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:         adminEmail,
		Username:      "admin",
		PasswordHash:  hash,
		Roles:         []string{"admin", "user"},
		EmailVerified: true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("bootstrap admin account created", slog.String("email", pkglogger.SanitizedEmail(adminEmail)))
	return nil
}
