package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Collections tracked in sync_state.
const (
	CollectionDebtState  = "debt-state"
	CollectionPayments   = "payments"
	CollectionMilestones = "milestones"
)

// SyncState records the outcome of the last replay attempt per collection.
type SyncState struct {
	Collection   string
	LastSuccess  *time.Time
	LastAttempt  *time.Time
	LastErrorMsg string
}

type SyncStateRepo struct {
	db *sql.DB
}

func NewSyncStateRepo(db *sql.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

func (r *SyncStateRepo) Get(ctx context.Context, collection string) (SyncState, bool, error) {
	const q = `SELECT collection, last_success_at, last_attempt_at, COALESCE(last_error, '')
FROM sync_state WHERE collection = ?`

	var state SyncState
	var success, attempt sql.NullString
	err := r.db.QueryRowContext(ctx, q, collection).
		Scan(&state.Collection, &success, &attempt, &state.LastErrorMsg)
	if err == sql.ErrNoRows {
		return SyncState{}, false, nil
	}
	if err != nil {
		return SyncState{}, false, fmt.Errorf("read sync state %q: %w", collection, err)
	}

	if state.LastSuccess, err = parseSyncTime(success); err != nil {
		return SyncState{}, false, fmt.Errorf("sync state %q last_success_at: %w", collection, err)
	}
	if state.LastAttempt, err = parseSyncTime(attempt); err != nil {
		return SyncState{}, false, fmt.Errorf("sync state %q last_attempt_at: %w", collection, err)
	}
	return state, true, nil
}

func parseSyncTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordAttempt marks the start of a replay pass and clears any stale error.
func (r *SyncStateRepo) RecordAttempt(ctx context.Context, collection string, at time.Time) error {
	return r.upsert(ctx, collection, at, nil, "")
}

func (r *SyncStateRepo) RecordSuccess(ctx context.Context, collection string, at time.Time) error {
	return r.upsert(ctx, collection, at, &at, "")
}

func (r *SyncStateRepo) RecordError(ctx context.Context, collection string, at time.Time, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	return r.upsert(ctx, collection, at, nil, msg)
}

func (r *SyncStateRepo) upsert(
	ctx context.Context,
	collection string,
	attemptAt time.Time,
	successAt *time.Time,
	errorMsg string,
) error {
	var successValue any
	if successAt != nil {
		successValue = successAt.UTC().Format(time.RFC3339Nano)
	}

	// last_success_at survives failed attempts; it only moves forward on success.
	const q = `
INSERT INTO sync_state (collection, last_attempt_at, last_success_at, last_error)
VALUES (?, ?, ?, ?)
ON CONFLICT(collection) DO UPDATE SET
  last_attempt_at = excluded.last_attempt_at,
  last_success_at = COALESCE(excluded.last_success_at, sync_state.last_success_at),
  last_error = excluded.last_error
`
	_, err := r.db.ExecContext(ctx, q,
		collection, attemptAt.UTC().Format(time.RFC3339Nano), successValue, errorMsg)
	if err != nil {
		return fmt.Errorf("record sync state %q: %w", collection, err)
	}
	return nil
}
