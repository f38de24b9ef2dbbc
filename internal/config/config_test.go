package config

import (
	"slices"
	"testing"
	"time"
)

func TestLoad_BoltDriver(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "BOLT")
	t.Setenv("PRICING_HOLIDAYS", "2025-12-25, ,2026-01-01")
	t.Setenv("PRICING_SEED", "42")
	t.Setenv("CANCEL_RELEASES_INVENTORY", "yes")
	t.Setenv("EVENT_BROKER", "Kafka")

	cfg := Load()
	if cfg.StorageDriver != "bolt" {
		t.Fatalf("expected bolt driver, got %q", cfg.StorageDriver)
	}
	if cfg.DBUser != "" {
		t.Fatalf("db credentials should not be read for bolt, got %q", cfg.DBUser)
	}
	if !slices.Equal(cfg.PricingHolidays, []string{"2025-12-25", "2026-01-01"}) {
		t.Fatalf("unexpected holidays: %v", cfg.PricingHolidays)
	}
	if cfg.PricingSeed != 42 || !cfg.CancelReleasesInventory || cfg.EventBroker != "kafka" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.FreezeBackend != "memory" || cfg.LayoutSeedMode != "open" || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_BAD_BOOL", "maybe")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")

	if envBool("X_BOOL", true) {
		t.Fatal("expected off to parse as false")
	}
	if !envBool("X_BAD_BOOL", true) {
		t.Fatal("expected default for unparsable bool")
	}
	if got := envInt("X_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	if got := envDur("X_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
}

func TestRateLimitConfig_Normalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("expected capacity clamped to 1, got %d", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
		t.Fatalf("unexpected refill: %d per %v", cfg.RefillTokens, cfg.RefillInterval)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("expected ttl raised to 5 intervals, got %v", cfg.TTL)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || len(cfg.Methods) != 2 {
		t.Fatalf("unexpected methods: %v", cfg.Methods)
	}
	if cfg.TTL != 30*time.Second || cfg.KeyStrategy != "path_query" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	if got := LoadRedisConfig().Addr; got != "cache:6380" {
		t.Fatalf("expected REDIS_ADDR, got %q", got)
	}
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6379" || !cfg.TLS {
		t.Fatalf("host/port should win, got %+v", cfg)
	}
}
