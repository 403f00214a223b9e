package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYDOWN_DB_PATH", "/tmp/paydown-test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Env != "development" {
		t.Fatalf("cfg.Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.InitialDebt != 50249.75 {
		t.Fatalf("cfg.InitialDebt = %v, want %v", cfg.InitialDebt, 50249.75)
	}
	if cfg.InitialMinPayment != 1508.00 {
		t.Fatalf("cfg.InitialMinPayment = %v, want %v", cfg.InitialMinPayment, 1508.00)
	}
	if cfg.MonthlyRate != 0.035 {
		t.Fatalf("cfg.MonthlyRate = %v, want %v", cfg.MonthlyRate, 0.035)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("cfg.CacheTTL = %v, want %v", cfg.CacheTTL, 5*time.Minute)
	}
}

func TestLoadOverridePath(t *testing.T) {
	t.Setenv("PAYDOWN_DB_PATH", "/tmp/paydown-custom.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.DBPath != "/tmp/paydown-custom.db" {
		t.Fatalf("cfg.DBPath = %q, want %q", cfg.DBPath, "/tmp/paydown-custom.db")
	}
}

func TestLoadRejectsBadRate(t *testing.T) {
	t.Setenv("PAYDOWN_DB_PATH", "/tmp/paydown-test.db")
	t.Setenv("PAYDOWN_MONTHLY_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want non-nil for out-of-range rate")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("PAYDOWN_DB_PATH", "/tmp/paydown-test.db")
	t.Setenv("PAYDOWN_SYNC_POLL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want non-nil for bad duration")
	}
}
