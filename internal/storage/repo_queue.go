package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// OpType identifies the remote operation a queue item will replay.
type OpType string

const (
	OpSaveDebt      OpType = "save_debt"
	OpSavePayment   OpType = "save_payment"
	OpDeletePayment OpType = "delete_payment"
	OpSaveMilestone OpType = "save_milestone"
)

// QueueItem is one deferred outbound operation. Payload is the JSON-encoded
// operation data; items replay in FIFO order by EnqueuedAt.
type QueueItem struct {
	ID         string
	Type       OpType
	Payload    []byte
	EnqueuedAt time.Time
	RetryCount int
}

type QueueRepo struct {
	db *sql.DB
}

func NewQueueRepo(db *sql.DB) *QueueRepo {
	return &QueueRepo{db: db}
}

func (r *QueueRepo) Enqueue(ctx context.Context, item QueueItem) error {
	const q = `
INSERT INTO offline_queue (id, op_type, payload, enqueued_at, retry_count)
VALUES (?, ?, ?, ?, ?)
`
	_, err := r.db.ExecContext(
		ctx,
		q,
		item.ID,
		string(item.Type),
		string(item.Payload),
		item.EnqueuedAt.UTC().Format(time.RFC3339Nano),
		item.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("enqueue %s operation %q: %w", item.Type, item.ID, err)
	}
	return nil
}

// ListFIFO returns all pending items oldest-first.
func (r *QueueRepo) ListFIFO(ctx context.Context) ([]QueueItem, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, op_type, payload, enqueued_at, retry_count
		 FROM offline_queue ORDER BY enqueued_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query offline queue: %w", err)
	}
	defer rows.Close()

	var out []QueueItem
	for rows.Next() {
		var item QueueItem
		var payload, enqueuedAt string
		if err := rows.Scan(&item.ID, (*string)(&item.Type), &payload, &enqueuedAt, &item.RetryCount); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, enqueuedAt)
		if err != nil {
			return nil, fmt.Errorf("parse queue enqueued_at: %w", err)
		}
		item.Payload = []byte(payload)
		item.EnqueuedAt = t
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue items: %w", err)
	}
	return out, nil
}

// SetRetryCount persists an incremented retry count before the replay moves
// on, so a crash cannot reset a poison item's progress toward eviction.
func (r *QueueRepo) SetRetryCount(ctx context.Context, id string, retryCount int) error {
	if _, err := r.db.ExecContext(
		ctx,
		"UPDATE offline_queue SET retry_count = ? WHERE id = ?",
		retryCount,
		id,
	); err != nil {
		return fmt.Errorf("set retry count for queue item %q: %w", id, err)
	}
	return nil
}

func (r *QueueRepo) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM offline_queue WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove queue item %q: %w", id, err)
	}
	return nil
}

func (r *QueueRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offline_queue").Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue items: %w", err)
	}
	return count, nil
}

func (r *QueueRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM offline_queue"); err != nil {
		return fmt.Errorf("clear offline queue: %w", err)
	}
	return nil
}
