package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("FUNCTIONS_SKIP", "")
	t.Setenv("SITE_URL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("env = %q, want dev", cfg.Env)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("session ttl = %s", cfg.SessionTTL)
	}
	if !cfg.FunctionsSkip {
		t.Fatal("functions skip should default to true")
	}
	if cfg.SiteURL != "https://tayoga.cz" {
		t.Fatalf("site url = %q", cfg.SiteURL)
	}
	if cfg.Production() {
		t.Fatal("dev must not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("FUNCTIONS_SKIP", "false")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("SITE_URL", "https://example.org/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	if !cfg.Production() {
		t.Fatal("expected production")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session ttl = %s", cfg.SessionTTL)
	}
	if cfg.FunctionsSkip {
		t.Fatal("functions skip should be false")
	}
	if cfg.RateLimitPerMin != 5 {
		t.Fatalf("rate limit = %d", cfg.RateLimitPerMin)
	}
	if cfg.SiteURL != "https://example.org" {
		t.Fatalf("site url = %q", cfg.SiteURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("FUNCTIONS_SKIP", "maybe")
	t.Setenv("RATE_LIMIT_PER_MIN", "many")

	cfg := Load()
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("session ttl = %s", cfg.SessionTTL)
	}
	if !cfg.FunctionsSkip {
		t.Fatal("invalid bool should fall back to true")
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("rate limit = %d", cfg.RateLimitPerMin)
	}
}
