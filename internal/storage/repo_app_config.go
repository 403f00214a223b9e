package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Config keys persisted across sessions.
const (
	ConfigKeyCustomMinPayment = "custom_min_payment"
	ConfigKeyInitialDebt      = "initial_debt"
)

type AppConfigRepo struct {
	db *sql.DB
}

func NewAppConfigRepo(db *sql.DB) *AppConfigRepo {
	return &AppConfigRepo{db: db}
}

func (r *AppConfigRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM app_config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get app config %q: %w", key, err)
	}
	return value, true, nil
}

func (r *AppConfigRepo) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert app config %q: %w", key, err)
	}
	return nil
}

func (r *AppConfigRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM app_config WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete app config %q: %w", key, err)
	}
	return nil
}

// GetFloat reads a numeric config value such as the custom minimum payment.
func (r *AppConfigRepo) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse app config %q value %q: %w", key, raw, err)
	}
	return v, true, nil
}

func (r *AppConfigRepo) SetFloat(ctx context.Context, key string, value float64) error {
	return r.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64))
}
