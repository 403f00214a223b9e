// Package storage is the durable local store: an encrypted SQLite database
// with one table per partition (debt state, payments, milestones, outbound
// queue) plus sync bookkeeping. It is the source of truth for offline reads;
// the remote store owns the authoritative copy once synced.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kmsantiago/paydown/internal/auth"
)

const schemaVersion = 1

// Open opens (creating if needed) the encrypted database at path and runs
// migrations. The encryption key lives in the system credential store; when a
// fresh key has to be generated, any stale database files encrypted under a
// lost key are removed first.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if !secureSQLiteSupported() {
		return nil, fmt.Errorf(
			"secure mode requires a sqlcipher-enabled build; rebuild with '-tags sqlcipher'",
		)
	}

	key, created, err := ensureDBKey()
	if err != nil {
		return nil, fmt.Errorf("ensure secure db key: %w", err)
	}
	if created {
		if err := removeLocalDBFiles(path); err != nil {
			return nil, fmt.Errorf("reset db after key creation: %w", err)
		}
	}

	db, err := openSecureSQLite(path, key)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Wipe removes the local database files at path.
func Wipe(path string) error {
	if err := removeLocalDBFiles(path); err != nil {
		return fmt.Errorf("wipe local db files: %w", err)
	}
	return nil
}

// ClearAll empties every partition in one transaction, keeping the schema.
// Used by the reset flow.
func ClearAll(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear-all transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"debt_state", "payments", "milestones", "offline_queue", "sync_state", "app_config"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear-all transaction: %w", err)
	}
	return nil
}

func ensureDBKey() (key string, created bool, err error) {
	key, err = auth.LoadDBKey()
	if err == nil && key != "" {
		return key, false, nil
	}

	newKey, err := generateRandomKey()
	if err != nil {
		return "", false, err
	}

	if err := auth.SaveDBKey(newKey); err != nil {
		return "", false, err
	}
	return newKey, true, nil
}

func generateRandomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  version INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_migrations (id, version) VALUES (1, 0);
`
	if _, err := db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE id = 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read sqlite schema version: %w", err)
	}

	if currentVersion < 1 {
		if err := applyV1Migrations(ctx, db); err != nil {
			return err
		}
		currentVersion = 1
	}

	if currentVersion > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, schemaVersion)
	}

	return nil
}

func applyV1Migrations(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS debt_state (
  id TEXT PRIMARY KEY CHECK (id = 'current'),
  current_principal REAL NOT NULL,
  interest_rate REAL NOT NULL,
  minimum_payment REAL NOT NULL,
  statement_date TEXT NOT NULL,
  due_date TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  amount REAL NOT NULL,
  paid_at TEXT NOT NULL,
  principal REAL NOT NULL,
  interest REAL NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('payment', 'adjustment')),
  note TEXT,
  synced INTEGER NOT NULL DEFAULT 0 CHECK (synced IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments(paid_at);

CREATE TABLE IF NOT EXISTS milestones (
  threshold INTEGER PRIMARY KEY CHECK (threshold IN (25, 50, 75, 100)),
  achieved_at TEXT NOT NULL,
  principal_at_achievement REAL NOT NULL,
  celebrated INTEGER NOT NULL DEFAULT 0 CHECK (celebrated IN (0,1))
);

CREATE TABLE IF NOT EXISTS offline_queue (
  id TEXT PRIMARY KEY,
  op_type TEXT NOT NULL CHECK (op_type IN ('save_debt', 'save_payment', 'delete_payment', 'save_milestone')),
  payload TEXT NOT NULL,
  enqueued_at TEXT NOT NULL,
  retry_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_offline_queue_enqueued_at ON offline_queue(enqueued_at);

CREATE TABLE IF NOT EXISTS sync_state (
  collection TEXT PRIMARY KEY,
  last_success_at TEXT,
  last_attempt_at TEXT,
  last_error TEXT
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v1 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run sqlite v1 migrations: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 1: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v1 migrations: %w", err)
	}
	return nil
}

func removeLocalDBFiles(path string) error {
	paths := []string{
		path,
		path + "-wal",
		path + "-shm",
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func hasLocalDBFiles(path string) (bool, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(p); err == nil {
			return true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}
