// Package config handles application configuration via environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configurable values for the app.
type Config struct {
	Env string

	// DBPath is the encrypted SQLite file holding the durable local store.
	DBPath string

	// RemoteBaseURL points at the remote document-store gateway.
	RemoteBaseURL string

	// OpsAddr, when non-empty, enables the /metrics and /healthz listener.
	OpsAddr string

	CacheTTL       time.Duration
	CacheRedisAddr string

	// SyncPoll is how often connectivity is probed and the queue retried.
	SyncPoll time.Duration

	InitialDebt       float64
	InitialMinPayment float64
	MonthlyRate       float64
}

// Load reads environment variables and populates a Config struct.
func Load() (Config, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := durationEnv("PAYDOWN_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	syncPoll, err := durationEnv("PAYDOWN_SYNC_POLL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	initialDebt, err := floatEnv("PAYDOWN_INITIAL_DEBT", 50249.75)
	if err != nil {
		return Config{}, err
	}
	initialMin, err := floatEnv("PAYDOWN_INITIAL_MIN_PAYMENT", 1508.00)
	if err != nil {
		return Config{}, err
	}
	monthlyRate, err := floatEnv("PAYDOWN_MONTHLY_RATE", 0.035)
	if err != nil {
		return Config{}, err
	}
	if monthlyRate < 0 || monthlyRate >= 1 {
		return Config{}, fmt.Errorf("PAYDOWN_MONTHLY_RATE %v out of range [0,1)", monthlyRate)
	}

	return Config{
		Env:               getEnv("ENV", "development"),
		DBPath:            dbPath,
		RemoteBaseURL:     getEnv("PAYDOWN_REMOTE_URL", "https://paydown-store.fly.dev/api/v1"),
		OpsAddr:           strings.TrimSpace(os.Getenv("PAYDOWN_OPS_ADDR")),
		CacheTTL:          cacheTTL,
		CacheRedisAddr:    strings.TrimSpace(os.Getenv("PAYDOWN_CACHE_REDIS_ADDR")),
		SyncPoll:          syncPoll,
		InitialDebt:       initialDebt,
		InitialMinPayment: initialMin,
		MonthlyRate:       monthlyRate,
	}, nil
}

func resolveDBPath() (string, error) {
	if dbPath := strings.TrimSpace(os.Getenv("PAYDOWN_DB_PATH")); dbPath != "" {
		return dbPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(configDir, "paydown", "paydown.db"), nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
