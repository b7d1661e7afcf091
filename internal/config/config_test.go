package config

import (
	"os"
	"testing"
	"time"
)

func TestSecurityConfig_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Security.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts: got %d, want 5", cfg.Security.MaxLoginAttempts)
	}
	if cfg.Security.LoginAttemptWindow != 15*time.Minute {
		t.Errorf("LoginAttemptWindow: got %v, want 15m", cfg.Security.LoginAttemptWindow)
	}
	if cfg.Security.LoginLockoutTime != 15*time.Minute {
		t.Errorf("LoginLockoutTime: got %v, want 15m", cfg.Security.LoginLockoutTime)
	}
	if cfg.Security.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL: got %v, want 24h", cfg.Security.SessionTTL)
	}
	if cfg.Security.MaxActiveSessions != 5 {
		t.Errorf("MaxActiveSessions: got %d, want 5", cfg.Security.MaxActiveSessions)
	}
	if cfg.Security.PasswordMinLength != 8 {
		t.Errorf("PasswordMinLength: got %d, want 8", cfg.Security.PasswordMinLength)
	}
	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("AccessTokenExpiry: got %v, want 15m", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.RefreshTokenExpiry != 7*24*time.Hour {
		t.Errorf("RefreshTokenExpiry: got %v, want 168h", cfg.Auth.RefreshTokenExpiry)
	}
	if cfg.Email.StoreName != "VibeCord" {
		t.Errorf("StoreName: got %q, want VibeCord", cfg.Email.StoreName)
	}
}

func TestEmailConfig_StoreNameOverride(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("STORE_NAME", "VibeCord EU")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Email.StoreName != "VibeCord EU" {
		t.Errorf("StoreName: got %q, want VibeCord EU", cfg.Email.StoreName)
	}
}

func TestSecurityConfig_Overrides(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	os.Setenv("LOGIN_ATTEMPT_WINDOW", "5m")
	os.Setenv("MAX_ACTIVE_SESSIONS", "2")
	os.Setenv("SESSION_TTL", "1h")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Security.MaxLoginAttempts != 3 {
		t.Errorf("MaxLoginAttempts: got %d, want 3", cfg.Security.MaxLoginAttempts)
	}
	if cfg.Security.LoginAttemptWindow != 5*time.Minute {
		t.Errorf("LoginAttemptWindow: got %v, want 5m", cfg.Security.LoginAttemptWindow)
	}
	if cfg.Security.MaxActiveSessions != 2 {
		t.Errorf("MaxActiveSessions: got %d, want 2", cfg.Security.MaxActiveSessions)
	}
	if cfg.Security.SessionTTL != time.Hour {
		t.Errorf("SessionTTL: got %v, want 1h", cfg.Security.SessionTTL)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with no JWT_SECRET: want error, got nil")
	}
}

func TestLoad_WeakJWTSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with short JWT_SECRET: want error, got nil")
	}
}

func TestLoad_TwoFactorRequiresKey(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("TWO_FACTOR_ENABLED", "true")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with TWO_FACTOR_ENABLED and no key: want error, got nil")
	}

	os.Setenv("TOTP_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with 32-byte key = %v, want nil", err)
	}
	if !cfg.Security.TwoFactorEnabled {
		t.Error("TwoFactorEnabled: got false, want true")
	}
}

func TestRedisConfig_Enabled(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("REDIS_URL", "redis://localhost:6379/0")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Redis.Enabled(): got false, want true")
	}
}
