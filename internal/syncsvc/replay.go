package syncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/metrics"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

// maxReplayAttempts bounds how often a queued operation is retried before
// it is dropped as poison.
const maxReplayAttempts = 3

// Replay drains the offline queue against the remote in FIFO order. Only
// one pass runs at a time; a call while a pass is active is a no-op. A
// connectivity failure stops the pass and leaves the remaining items queued
// in order; other failures count against the item's retry budget and the
// pass moves on.
func (c *Coordinator) Replay(ctx context.Context) error {
	c.mu.Lock()
	if c.replaying {
		c.mu.Unlock()
		c.log.Debug("replay already in progress, skipping")
		return nil
	}
	c.replaying = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.replaying = false
		c.mu.Unlock()
	}()

	items, err := c.queue.ListFIFO(ctx)
	if err != nil {
		metrics.ReplayRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("list queued operations: %w", err)
	}
	if len(items) == 0 {
		metrics.ReplayRunsTotal.WithLabelValues("noop").Inc()
		return nil
	}

	c.log.Info("replaying queued operations", zap.Int("count", len(items)))
	c.emitStatus(StatusSyncing)

	attemptAt := time.Now().UTC()
	touched := make(map[string]struct{})
	for _, item := range items {
		collection := collectionForOp(item.Type)
		if _, seen := touched[collection]; !seen {
			touched[collection] = struct{}{}
			if err := c.syncState.RecordAttempt(ctx, collection, attemptAt); err != nil {
				c.log.Warn("record sync attempt failed", zap.Error(err))
			}
		}
	}

	var firstErr error
	for _, item := range items {
		if ctx.Err() != nil {
			firstErr = ctx.Err()
			break
		}

		replayErr := c.replayItem(ctx, item)
		collection := collectionForOp(item.Type)
		if replayErr == nil {
			if err := c.queue.Remove(ctx, item.ID); err != nil {
				c.emitStatus(StatusError)
				metrics.ReplayRunsTotal.WithLabelValues("error").Inc()
				return fmt.Errorf("remove replayed item %s: %w", item.ID, err)
			}
			if err := c.syncState.RecordSuccess(ctx, collection, time.Now().UTC()); err != nil {
				c.log.Warn("record sync success failed", zap.Error(err))
			}
			continue
		}

		if err := c.syncState.RecordError(ctx, collection, time.Now().UTC(), replayErr); err != nil {
			c.log.Warn("record sync error failed", zap.Error(err))
		}
		c.bumpRetry(ctx, item, replayErr)

		if remote.IsRetryable(replayErr) {
			// Still unreachable. Later items would fail the same way and
			// replaying them out of order is not allowed.
			firstErr = replayErr
			break
		}
		if firstErr == nil {
			firstErr = replayErr
		}
	}

	c.refreshQueueDepth(ctx)
	if firstErr != nil {
		c.emitStatus(StatusError)
		metrics.ReplayRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("replay queued operations: %w", firstErr)
	}
	c.emitStatus(StatusIdle)
	metrics.ReplayRunsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (c *Coordinator) replayItem(ctx context.Context, item storage.QueueItem) error {
	metrics.SyncAttemptsTotal.WithLabelValues(string(item.Type)).Inc()

	switch item.Type {
	case storage.OpSaveDebt:
		var state remote.DebtState
		if err := json.Unmarshal(item.Payload, &state); err != nil {
			return fmt.Errorf("decode queued debt state: %w", err)
		}
		return c.countFailure(item, c.remote.PutDebtState(ctx, state))

	case storage.OpSavePayment:
		var payment remote.Payment
		if err := json.Unmarshal(item.Payload, &payment); err != nil {
			return fmt.Errorf("decode queued payment: %w", err)
		}
		tempID := payment.ID
		payment.ID = ""
		serverID, err := c.remote.AddPayment(ctx, payment)
		if err != nil {
			var remoteErr *remote.Error
			if errors.As(err, &remoteErr) && remoteErr.Code == remote.CodeAlreadyExists {
				return nil
			}
			return c.countFailure(item, err)
		}
		if strings.HasPrefix(tempID, tempIDPrefix) {
			if err := c.payments.ReplaceID(ctx, tempID, serverID); err != nil {
				c.log.Warn("adopt server payment id after replay failed",
					zap.String("temp_id", tempID), zap.Error(err))
			}
		}
		return nil

	case storage.OpDeletePayment:
		var payload deletePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode queued delete: %w", err)
		}
		err := c.remote.DeletePayment(ctx, payload.ID)
		if remote.IsNotFound(err) {
			return nil
		}
		return c.countFailure(item, err)

	case storage.OpSaveMilestone:
		var milestone remote.Milestone
		if err := json.Unmarshal(item.Payload, &milestone); err != nil {
			return fmt.Errorf("decode queued milestone: %w", err)
		}
		err := c.remote.PutMilestone(ctx, milestone)
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) && remoteErr.Code == remote.CodeAlreadyExists {
			return nil
		}
		return c.countFailure(item, err)

	default:
		return fmt.Errorf("unknown queued operation type %q", item.Type)
	}
}

func (c *Coordinator) countFailure(item storage.QueueItem, err error) error {
	if err == nil {
		return nil
	}
	code := "unknown"
	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		code = string(remoteErr.Code)
	}
	metrics.SyncFailuresTotal.WithLabelValues(string(item.Type), code).Inc()
	return err
}

// bumpRetry advances the item's retry budget, evicting it once exhausted so
// one poisoned operation cannot wedge the queue.
func (c *Coordinator) bumpRetry(ctx context.Context, item storage.QueueItem, cause error) {
	next := item.RetryCount + 1
	if next >= maxReplayAttempts {
		c.log.Warn("dropping queued operation after repeated failures",
			zap.String("op", string(item.Type)),
			zap.String("queue_id", item.ID),
			zap.Int("attempts", next),
			zap.Error(cause))
		metrics.QueueEvictionsTotal.Inc()
		if err := c.queue.Remove(ctx, item.ID); err != nil {
			c.log.Error("evict poisoned queue item failed", zap.String("queue_id", item.ID), zap.Error(err))
		}
		return
	}
	if err := c.queue.SetRetryCount(ctx, item.ID, next); err != nil {
		c.log.Warn("persist queue retry count failed", zap.String("queue_id", item.ID), zap.Error(err))
	}
}

func collectionForOp(op storage.OpType) string {
	switch op {
	case storage.OpSaveDebt:
		return storage.CollectionDebtState
	case storage.OpSavePayment, storage.OpDeletePayment:
		return storage.CollectionPayments
	case storage.OpSaveMilestone:
		return storage.CollectionMilestones
	default:
		return string(op)
	}
}

