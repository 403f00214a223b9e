package syncsvc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/cache"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

// ApplyPaymentsSnapshot replaces the local payment view with an
// authoritative remote snapshot, as delivered by a subscription.
func (c *Coordinator) ApplyPaymentsSnapshot(ctx context.Context, wire []remote.Payment) error {
	records := make([]storage.PaymentRecord, 0, len(wire))
	for _, payment := range wire {
		records = append(records, fromWirePayment(payment))
	}
	if err := c.payments.ReplaceSnapshot(ctx, records); err != nil {
		return fmt.Errorf("apply payments snapshot: %w", err)
	}
	if err := c.cache.PutJSON(ctx, cache.KeyPaymentHistory, records); err != nil {
		c.log.Warn("payment history cache write failed", zap.Error(err))
	}
	return nil
}

// ApplyDebtSnapshot replaces the local debt document with an authoritative
// remote snapshot.
func (c *Coordinator) ApplyDebtSnapshot(ctx context.Context, wire remote.DebtState) error {
	state := fromWireDebt(wire)
	if err := c.debts.Save(ctx, state); err != nil {
		return fmt.Errorf("apply debt snapshot: %w", err)
	}
	if err := c.cache.PutJSON(ctx, cache.KeyDebtState, state); err != nil {
		c.log.Warn("debt state cache write failed", zap.Error(err))
	}
	return nil
}
