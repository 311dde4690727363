package config_test

import (
	"testing"
	"time"

	"foodloop/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "SEED_DEMO", "TX_TIMEOUT", "RATE_LIMIT_PER_MIN"} {
		t.Setenv(k, "")
	}
	cfg := config.Load()
	if cfg.Port != "5000" || cfg.DBDriver != "sqlite" || cfg.DBDSN != "foodloop.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TxTimeout != 5*time.Second || cfg.RateLimitPerMin != 120 || cfg.SeedDemo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("SEED_DEMO", "true")
	t.Setenv("TX_TIMEOUT", "250ms")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")
	cfg := config.Load()
	if cfg.DBDriver != "pgx" {
		t.Fatalf("driver not normalized: %q", cfg.DBDriver)
	}
	if !cfg.SeedDemo || cfg.TxTimeout != 250*time.Millisecond {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.RateLimitPerMin)
	}
}
