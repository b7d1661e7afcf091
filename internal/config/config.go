package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Security SecurityConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// RedisConfig selects the optional Redis-backed token blacklist.
// When URL is empty the Postgres blacklist repository is used instead.
type RedisConfig struct {
	URL      string
	Password string
}

func (c *RedisConfig) Enabled() bool { return c.URL != "" }

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string // CIDR ranges allowed to set X-Forwarded-For
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	CleanupInterval    time.Duration
}

type SecurityConfig struct {
	MaxLoginAttempts    int
	LoginAttemptWindow  time.Duration
	LoginLockoutTime    time.Duration
	SessionTTL          time.Duration
	MaxActiveSessions   int
	PasswordMinLength   int
	BcryptCost          int
	AuthRateLimitMax    int // requests per minute per IP on login/refresh
	RegisterRateLimit   int // requests per minute per IP on register
	TwoFactorEnabled    bool
	TOTPIssuer          string
	TOTPEncryptionKey   string // 32 bytes, required when TwoFactorEnabled
}

type EmailConfig struct {
	VerificationEnabled bool
	AWSRegion           string
	FromAddress         string
	StoreName           string // sender display name in outgoing mail
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "storefront"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseCSV(getEnv("TRUSTED_PROXIES", "")),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
		},
		Security: SecurityConfig{
			MaxLoginAttempts:   getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
			LoginAttemptWindow: getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
			LoginLockoutTime:   getEnvAsDuration("LOGIN_LOCKOUT_TIME", 15*time.Minute),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			MaxActiveSessions:  getEnvAsInt("MAX_ACTIVE_SESSIONS", 5),
			PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			AuthRateLimitMax:   getEnvAsInt("AUTH_RATE_LIMIT_MAX", 5),
			RegisterRateLimit:  getEnvAsInt("REGISTER_RATE_LIMIT_MAX", 3),
			TwoFactorEnabled:   getEnvAsBool("TWO_FACTOR_ENABLED", false),
			TOTPIssuer:         getEnv("TOTP_ISSUER", "VibeCord"),
			TOTPEncryptionKey:  getEnv("TOTP_ENCRYPTION_KEY", ""),
		},
		Email: EmailConfig{
			VerificationEnabled: getEnvAsBool("ENABLE_EMAIL_VERIFICATION", false),
			AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
			FromAddress:         getEnv("FROM_EMAIL", ""),
			StoreName:           getEnv("STORE_NAME", "VibeCord"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Security.TwoFactorEnabled && len(cfg.Security.TOTPEncryptionKey) != 32 {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY must be exactly 32 bytes when TWO_FACTOR_ENABLED is set (got %d)",
			len(cfg.Security.TOTPEncryptionKey))
	}

	if cfg.Email.VerificationEnabled && cfg.Email.FromAddress == "" {
		return nil, fmt.Errorf("FROM_EMAIL is required when ENABLE_EMAIL_VERIFICATION is set")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
