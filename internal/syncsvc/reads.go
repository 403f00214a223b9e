package syncsvc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/cache"
	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/metrics"
	"github.com/kmsantiago/paydown/internal/storage"
)

// LoadDebtState reads the debt document cache-first, refreshing from the
// remote when online and falling back to the durable local store when the
// remote is unreachable. It reports false only when no copy exists anywhere.
func (c *Coordinator) LoadDebtState(ctx context.Context) (debt.State, bool, error) {
	var cached debt.State
	hit, err := c.cache.GetJSON(ctx, cache.KeyDebtState, &cached)
	if err != nil {
		c.log.Warn("debt state cache read failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache.KeyDebtState).Inc()
		return cached, true, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(cache.KeyDebtState).Inc()

	if c.Online() {
		state, remoteErr := c.remote.GetDebtState(ctx)
		if remoteErr == nil {
			local := fromWireDebt(*state)
			if err := c.debts.Save(ctx, local); err != nil {
				c.log.Warn("refresh local debt state from remote failed", zap.Error(err))
			}
			if err := c.cache.PutJSON(ctx, cache.KeyDebtState, local); err != nil {
				c.log.Warn("debt state cache write failed", zap.Error(err))
			}
			return local, true, nil
		}
		c.log.Warn("remote debt state read failed, falling back to local store", zap.Error(remoteErr))
	}

	state, ok, err := c.debts.Get(ctx)
	if err != nil {
		return debt.State{}, false, fmt.Errorf("load debt state from local store: %w", err)
	}
	return state, ok, nil
}

// LoadRecentPayments reads payment history through the same cache, remote,
// local store chain. Remote snapshots are authoritative and replace the
// local payment table wholesale.
func (c *Coordinator) LoadRecentPayments(ctx context.Context, limit int) ([]storage.PaymentRecord, error) {
	if limit <= 0 {
		limit = c.cfg.HistoryLimit
	}

	var cached []storage.PaymentRecord
	hit, err := c.cache.GetJSON(ctx, cache.KeyPaymentHistory, &cached)
	if err != nil {
		c.log.Warn("payment history cache read failed", zap.Error(err))
	}
	// A cached snapshot shorter than the request may be the truncation of
	// an earlier, smaller read; only serve it when it can cover limit.
	if hit && len(cached) >= limit {
		metrics.CacheHitsTotal.WithLabelValues(cache.KeyPaymentHistory).Inc()
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(cache.KeyPaymentHistory).Inc()

	if c.Online() {
		wire, remoteErr := c.remote.ListPayments(ctx, limit)
		if remoteErr == nil {
			records := make([]storage.PaymentRecord, 0, len(wire))
			for _, payment := range wire {
				records = append(records, fromWirePayment(payment))
			}
			if err := c.payments.ReplaceSnapshot(ctx, records); err != nil {
				c.log.Warn("refresh local payments from remote failed", zap.Error(err))
			}
			if err := c.cache.PutJSON(ctx, cache.KeyPaymentHistory, records); err != nil {
				c.log.Warn("payment history cache write failed", zap.Error(err))
			}
			return records, nil
		}
		c.log.Warn("remote payment list failed, falling back to local store", zap.Error(remoteErr))
	}

	records, err := c.payments.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load payments from local store: %w", err)
	}
	return records, nil
}

// LoadMilestones reads achieved milestones from the durable local store.
// Milestones are tiny and written through on every change, so they skip the
// snapshot cache.
func (c *Coordinator) LoadMilestones(ctx context.Context) ([]storage.MilestoneRecord, error) {
	return c.milestones.List(ctx)
}
