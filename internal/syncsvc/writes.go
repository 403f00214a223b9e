package syncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/cache"
	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/metrics"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

// tempIDPrefix marks payment ids assigned locally before the server has
// issued a real one.
const tempIDPrefix = "temp-"

// PaymentInput is a validated request to record a payment or adjustment.
type PaymentInput struct {
	Amount    float64             `validate:"required,gt=0"`
	Principal float64             `validate:"gte=0"`
	Interest  float64             `validate:"gte=0"`
	Kind      storage.PaymentKind `validate:"required,oneof=payment adjustment"`
	Note      *string             `validate:"omitempty,max=500"`
	PaidAt    time.Time
}

type deletePayload struct {
	ID string `json:"id"`
}

// SaveDebtState persists the debt document locally, refreshes the cache and
// mirrors the write to the remote. The local write is the source of truth;
// a remote failure never rolls it back.
func (c *Coordinator) SaveDebtState(ctx context.Context, state debt.State) error {
	if err := c.debts.Save(ctx, state); err != nil {
		return fmt.Errorf("save debt state locally: %w", err)
	}
	if err := c.cache.PutJSON(ctx, cache.KeyDebtState, state); err != nil {
		c.log.Warn("debt state cache write failed, reads fall through to store", zap.Error(err))
	}

	wire := toWireDebt(state)
	if !c.Online() {
		return c.enqueue(ctx, storage.OpSaveDebt, wire)
	}

	err := c.attemptRemote("save_debt", func() error {
		return c.remote.PutDebtState(ctx, wire)
	})
	if err != nil {
		if remote.IsRetryable(err) {
			return c.enqueue(ctx, storage.OpSaveDebt, wire)
		}
		return err
	}
	return nil
}

// SavePayment records a payment locally under a temporary id and mirrors it
// to the remote, swapping in the server id on success. Offline or on a
// connectivity failure the operation queues and the temporary id stands
// until replay.
func (c *Coordinator) SavePayment(ctx context.Context, input PaymentInput) (storage.PaymentRecord, error) {
	if err := c.validate.Struct(input); err != nil {
		return storage.PaymentRecord{}, fmt.Errorf("invalid payment: %w", err)
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	record := storage.PaymentRecord{
		ID:        tempIDPrefix + uuid.NewString(),
		Amount:    input.Amount,
		PaidAt:    paidAt,
		Principal: input.Principal,
		Interest:  input.Interest,
		Kind:      input.Kind,
		Note:      input.Note,
	}
	if err := c.payments.Save(ctx, record); err != nil {
		return storage.PaymentRecord{}, fmt.Errorf("save payment locally: %w", err)
	}
	c.invalidateHistory(ctx)

	if !c.Online() {
		if err := c.enqueue(ctx, storage.OpSavePayment, toWirePayment(record)); err != nil {
			return record, err
		}
		return record, nil
	}

	var serverID string
	err := c.attemptRemote("save_payment", func() error {
		id, remoteErr := c.remote.AddPayment(ctx, toWirePayment(record))
		serverID = id
		return remoteErr
	})
	if err != nil {
		if remote.IsRetryable(err) {
			if qErr := c.enqueue(ctx, storage.OpSavePayment, toWirePayment(record)); qErr != nil {
				return record, qErr
			}
			return record, nil
		}
		return record, err
	}

	if err := c.payments.ReplaceID(ctx, record.ID, serverID); err != nil {
		return record, fmt.Errorf("adopt server payment id: %w", err)
	}
	record.ID = serverID
	record.Synced = true
	return record, nil
}

// DeletePayment removes a payment locally and mirrors the delete. Deleting
// a payment that never reached the server just cancels its queued upload.
func (c *Coordinator) DeletePayment(ctx context.Context, id string) error {
	if err := c.payments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete payment locally: %w", err)
	}
	c.invalidateHistory(ctx)

	if strings.HasPrefix(id, tempIDPrefix) {
		return c.cancelQueuedPayment(ctx, id)
	}

	if !c.Online() {
		return c.enqueue(ctx, storage.OpDeletePayment, deletePayload{ID: id})
	}

	err := c.attemptRemote("delete_payment", func() error {
		return c.remote.DeletePayment(ctx, id)
	})
	if err != nil {
		if remote.IsNotFound(err) {
			return nil
		}
		if remote.IsRetryable(err) {
			return c.enqueue(ctx, storage.OpDeletePayment, deletePayload{ID: id})
		}
		return err
	}
	return nil
}

// SaveMilestone persists an achieved milestone locally and mirrors it.
func (c *Coordinator) SaveMilestone(ctx context.Context, record storage.MilestoneRecord) error {
	if err := c.milestones.Save(ctx, record); err != nil {
		return fmt.Errorf("save milestone locally: %w", err)
	}

	wire := toWireMilestone(record)
	if !c.Online() {
		return c.enqueue(ctx, storage.OpSaveMilestone, wire)
	}

	err := c.attemptRemote("save_milestone", func() error {
		return c.remote.PutMilestone(ctx, wire)
	})
	if err != nil {
		if remote.IsRetryable(err) {
			return c.enqueue(ctx, storage.OpSaveMilestone, wire)
		}
		return err
	}
	return nil
}

// MarkMilestoneCelebrated flips the celebrated flag locally and merges it
// remotely so a concurrent achievement write is preserved.
func (c *Coordinator) MarkMilestoneCelebrated(ctx context.Context, threshold int) error {
	if err := c.milestones.MarkCelebrated(ctx, threshold); err != nil {
		return fmt.Errorf("mark milestone celebrated locally: %w", err)
	}

	record, ok, err := c.milestones.Get(ctx, threshold)
	if err != nil {
		return fmt.Errorf("load milestone %d: %w", threshold, err)
	}
	if !ok {
		return fmt.Errorf("milestone %d not found after celebration", threshold)
	}

	if !c.Online() {
		return c.enqueue(ctx, storage.OpSaveMilestone, toWireMilestone(record))
	}

	mergeErr := c.attemptRemote("save_milestone", func() error {
		return c.remote.MergeMilestoneCelebrated(ctx, threshold, true)
	})
	if mergeErr != nil {
		if remote.IsRetryable(mergeErr) {
			return c.enqueue(ctx, storage.OpSaveMilestone, toWireMilestone(record))
		}
		return mergeErr
	}
	return nil
}

// enqueue appends one deferred operation to the replay queue.
func (c *Coordinator) enqueue(ctx context.Context, op storage.OpType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s queue payload: %w", op, err)
	}
	item := storage.QueueItem{
		ID:         uuid.NewString(),
		Type:       op,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := c.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("enqueue %s: %w", op, err)
	}
	c.log.Debug("operation queued for replay", zap.String("op", string(op)), zap.String("queue_id", item.ID))
	c.refreshQueueDepth(ctx)
	return nil
}

// cancelQueuedPayment drops a queued save_payment whose local record was
// deleted before it ever synced.
func (c *Coordinator) cancelQueuedPayment(ctx context.Context, paymentID string) error {
	items, err := c.queue.ListFIFO(ctx)
	if err != nil {
		return fmt.Errorf("scan queue for cancelled payment: %w", err)
	}
	for _, item := range items {
		if item.Type != storage.OpSavePayment {
			continue
		}
		var payment remote.Payment
		if err := json.Unmarshal(item.Payload, &payment); err != nil {
			continue
		}
		if payment.ID == paymentID {
			if err := c.queue.Remove(ctx, item.ID); err != nil {
				return fmt.Errorf("remove cancelled payment from queue: %w", err)
			}
			c.refreshQueueDepth(ctx)
			return nil
		}
	}
	return nil
}

// attemptRemote runs one remote call with status and metrics bookkeeping.
func (c *Coordinator) attemptRemote(op string, fn func() error) error {
	metrics.SyncAttemptsTotal.WithLabelValues(op).Inc()
	c.emitStatus(StatusSyncing)

	if err := fn(); err != nil {
		code := "unknown"
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) {
			code = string(remoteErr.Code)
		}
		metrics.SyncFailuresTotal.WithLabelValues(op, code).Inc()
		c.emitStatus(StatusError)
		return err
	}

	c.emitStatus(StatusIdle)
	return nil
}

func (c *Coordinator) invalidateHistory(ctx context.Context) {
	if err := c.cache.Invalidate(ctx, cache.KeyPaymentHistory); err != nil {
		c.log.Warn("payment history cache invalidation failed", zap.Error(err))
	}
}

func (c *Coordinator) refreshQueueDepth(ctx context.Context) {
	count, err := c.queue.Count(ctx)
	if err != nil {
		return
	}
	metrics.QueueDepth.Set(float64(count))
}
