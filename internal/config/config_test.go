package config

import (
	"os"
	"strings"
	"testing"
)

func clearTestEnvVars() {
	vars := []string{
		"PORT", "DATABASE_PATH", "LOG_LEVEL",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_BACKEND", "RATE_LIMIT_DEFAULT",
		"RATE_LIMIT_WINDOW", "RATE_LIMIT_FAILURE_POLICY",
		"RATE_LIMIT_STORE_TIMEOUT", "RATE_LIMIT_RETENTION",
		"DATABASE_TYPE", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_SSL_MODE",
		"JWT_SECRET", "AI_API_URL", "AI_API_KEY", "AI_MODEL", "PDF_SERVICE_URL",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

func TestLoad(t *testing.T) {
	// Clear environment variables to test defaults
	clearTestEnvVars()

	config := Load()

	if config.Port != "8080" {
		t.Errorf("Load() Port = %v, want %v", config.Port, "8080")
	}

	if config.DatabasePath != "./resume_optimizer.db" {
		t.Errorf("Load() DatabasePath = %v, want %v", config.DatabasePath, "./resume_optimizer.db")
	}

	if config.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "info")
	}

	if config.RedisAddress != "localhost:6379" {
		t.Errorf("Load() RedisAddress = %v, want %v", config.RedisAddress, "localhost:6379")
	}

	if !config.RateLimitEnabled {
		t.Errorf("Load() RateLimitEnabled = %v, want %v", config.RateLimitEnabled, true)
	}

	if config.RateLimitBackend != "memory" {
		t.Errorf("Load() RateLimitBackend = %v, want %v", config.RateLimitBackend, "memory")
	}

	if config.RateLimitDefault != "100" {
		t.Errorf("Load() RateLimitDefault = %v, want %v", config.RateLimitDefault, "100")
	}

	if config.RateLimitWindow != "60s" {
		t.Errorf("Load() RateLimitWindow = %v, want %v", config.RateLimitWindow, "60s")
	}

	if config.RateLimitFailurePolicy != "closed" {
		t.Errorf("Load() RateLimitFailurePolicy = %v, want %v", config.RateLimitFailurePolicy, "closed")
	}

	if config.DatabaseType != "sqlite" {
		t.Errorf("Load() DatabaseType = %v, want %v", config.DatabaseType, "sqlite")
	}

	if config.AIModel != "gemini-1.5-flash" {
		t.Errorf("Load() AIModel = %v, want %v", config.AIModel, "gemini-1.5-flash")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearTestEnvVars()

	os.Setenv("PORT", "9090")
	os.Setenv("RATE_LIMIT_BACKEND", "redis")
	os.Setenv("RATE_LIMIT_FAILURE_POLICY", "open")
	defer clearTestEnvVars()

	config := Load()

	if config.Port != "9090" {
		t.Errorf("Load() Port = %v, want %v", config.Port, "9090")
	}

	if config.RateLimitBackend != "redis" {
		t.Errorf("Load() RateLimitBackend = %v, want %v", config.RateLimitBackend, "redis")
	}

	if config.RateLimitFailurePolicy != "open" {
		t.Errorf("Load() RateLimitFailurePolicy = %v, want %v", config.RateLimitFailurePolicy, "open")
	}
}

func validTestConfig() *Config {
	clearTestEnvVars()
	cfg := Load()
	cfg.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validTestConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	t.Run("missing JWT secret", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.JWTSecret = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for missing JWT_SECRET")
		}
	})

	t.Run("short JWT secret", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.JWTSecret = "short"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for short JWT_SECRET")
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Port = "not-a-port"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for invalid PORT")
		}
	})

	t.Run("invalid database type", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.DatabaseType = "mongodb"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for invalid DATABASE_TYPE")
		}
	})

	t.Run("postgres requires host", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.DatabaseType = "postgres"
		cfg.PostgresHost = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for missing POSTGRES_HOST")
		}
	})

	t.Run("invalid rate limit backend", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.RateLimitBackend = "mongo"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for invalid RATE_LIMIT_BACKEND")
		}
	})

	t.Run("invalid rate limit window", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.RateLimitWindow = "sixty seconds"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for invalid RATE_LIMIT_WINDOW")
		}
	})

	t.Run("invalid failure policy", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.RateLimitFailurePolicy = "maybe"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() error = nil, want error for invalid RATE_LIMIT_FAILURE_POLICY")
		}
	})

	t.Run("rate limit validation skipped when disabled", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.RateLimitEnabled = false
		cfg.RateLimitBackend = "mongo"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil when rate limiting disabled", err)
		}
	})
}
