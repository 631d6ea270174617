package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:      "development",
		DatabaseURL:      "postgres://localhost/hraccess",
		StoreDriver:      StoreDriverPostgres,
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		RunSeed:          true,
		SeedPassword:     "password",
		PendingChangeTTL: time.Minute,
		MaxBodyBytes:     4096,
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PENDING_CHANGE_TTL", "")

	cfg := FromEnv()
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("unexpected store driver %q", cfg.StoreDriver)
	}
	if cfg.PendingChangeTTL != 10*time.Minute {
		t.Fatalf("unexpected pending ttl %s", cfg.PendingChangeTTL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("RUN_SEED", "false")
	t.Setenv("MAX_BODY_BYTES", "not-a-number")

	cfg := FromEnv()
	if !cfg.UsesMemoryStore() {
		t.Fatalf("expected memory store, got %q", cfg.StoreDriver)
	}
	if cfg.RedisDB != 3 || cfg.TokenTTL != 30*time.Minute || cfg.RunSeed {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.MaxBodyBytes != 1048576 {
		t.Fatalf("expected fallback body limit, got %d", cfg.MaxBodyBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "postgres needs url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:   "memory needs no url",
			mutate: func(c *Config) { c.StoreDriver = StoreDriverMemory; c.DatabaseURL = "" },
		},
		{
			name:    "memory not in production",
			mutate:  func(c *Config) { c.StoreDriver = StoreDriverMemory; c.Environment = "production"; c.JWTSecret = strings.Repeat("x", 40) },
			wantErr: "not allowed in production",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.StoreDriver = "mongo" },
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "short production secret",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: "at least 32",
		},
		{
			name:    "seed without password",
			mutate:  func(c *Config) { c.SeedPassword = "" },
			wantErr: "SEED_PASSWORD",
		},
		{
			name:   "no seed no password",
			mutate: func(c *Config) { c.SeedPassword = ""; c.RunSeed = false },
		},
		{
			name:    "rate limit without window",
			mutate:  func(c *Config) { c.LoginRateLimit = 5; c.RateLimitWindow = 0 },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name:    "small body limit",
			mutate:  func(c *Config) { c.MaxBodyBytes = 10 },
			wantErr: "MAX_BODY_BYTES",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	if (Config{LogLevel: "DEBUG"}).SlogLevel() != slog.LevelDebug {
		t.Fatal("expected debug")
	}
	if (Config{LogLevel: "nonsense"}).SlogLevel() != slog.LevelInfo {
		t.Fatal("expected info fallback")
	}
}
