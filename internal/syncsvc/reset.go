package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kmsantiago/paydown/internal/billing"
	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/remote"
)

// ErrLocalOnlyReset reports that local data was wiped but the remote copy
// could not be reached. Callers surface this distinctly so the user knows
// the hosted data still exists.
var ErrLocalOnlyReset = errors.New("remote unreachable, reset applied locally only")

// ResetAllData wipes every local partition, the caches and the replay
// queue, then deletes the remote copy in one atomic batch. Queued
// operations are discarded rather than replayed; they reference data that
// no longer exists.
func (c *Coordinator) ResetAllData(ctx context.Context) error {
	if err := c.debts.Clear(ctx); err != nil {
		return fmt.Errorf("clear debt state: %w", err)
	}
	if err := c.payments.Clear(ctx); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	if err := c.milestones.Clear(ctx); err != nil {
		return fmt.Errorf("clear milestones: %w", err)
	}
	if err := c.queue.Clear(ctx); err != nil {
		return fmt.Errorf("clear offline queue: %w", err)
	}
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear caches: %w", err)
	}
	c.refreshQueueDepth(ctx)

	if !c.Online() {
		return ErrLocalOnlyReset
	}

	err := c.attemptRemote("reset", func() error {
		return c.remote.ResetAll(ctx)
	})
	if err != nil {
		if remote.IsRetryable(err) {
			return fmt.Errorf("%w: %w", ErrLocalOnlyReset, err)
		}
		return err
	}
	return nil
}

// InitializeDefaults seeds the debt document on first run. An existing
// document, local or remote, is returned untouched.
func (c *Coordinator) InitializeDefaults(ctx context.Context) (debt.State, error) {
	state, ok, err := c.LoadDebtState(ctx)
	if err != nil {
		return debt.State{}, err
	}
	if ok {
		return state, nil
	}

	now := time.Now().UTC()
	seeded := debt.State{
		CurrentPrincipal: c.cfg.InitialDebt,
		InterestRate:     c.cfg.MonthlyRate,
		MinimumPayment:   c.cfg.InitialMinPayment,
		StatementDate:    now,
		DueDate:          billing.NextDueDate(now),
	}
	if err := c.SaveDebtState(ctx, seeded); err != nil {
		return debt.State{}, fmt.Errorf("seed initial debt state: %w", err)
	}
	c.log.Info("initialized debt tracking with defaults")
	return seeded, nil
}
