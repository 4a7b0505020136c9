package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCOUNT_STORE", "")
	t.Setenv("GENERATION_MAX_WORKERS", "")
	t.Setenv("GENERATION_WAIT_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AccountStore != "memory" {
		t.Fatalf("AccountStore = %q, want %q", cfg.AccountStore, "memory")
	}
	if cfg.MaxWorkers != 5 {
		t.Fatalf("MaxWorkers = %d, want 5", cfg.MaxWorkers)
	}
	if cfg.GenerateWaitTimeout != 120*time.Second {
		t.Fatalf("GenerateWaitTimeout = %v, want 120s", cfg.GenerateWaitTimeout)
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadConfigPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCOUNT_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when ACCOUNT_STORE=postgres without DATABASE_URL")
	}
}

func TestLoadConfigRejectsUnknownAccountStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCOUNT_STORE", "dynamo")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported account store")
	}
}

func TestLoadConfigParsesAllowedOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCOUNT_STORE", "")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("AllowedOrigins mismatch: %#v", cfg.AllowedOrigins)
	}
}
