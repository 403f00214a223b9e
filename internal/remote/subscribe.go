package remote

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often subscriptions refresh when the caller
// does not choose an interval.
const DefaultPollInterval = 30 * time.Second

// Subscription is a handle to a polling watch. Unsubscribe stops the poll
// loop and closes the snapshot channel; it is safe to call more than once.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe stops the subscription and waits for the poll loop to exit.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

// SubscribePayments polls the payment collection and delivers full
// snapshots, most recent first. Each snapshot is authoritative; consumers
// replace their local view rather than merging. Transient poll failures are
// logged and the subscription stays live.
func (c *Client) SubscribePayments(
	ctx context.Context,
	interval time.Duration,
	limit int,
	log *zap.Logger,
) (<-chan []Payment, *Subscription) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	snapshots := make(chan []Payment, 1)

	go func() {
		defer close(sub.done)
		defer close(snapshots)

		poll := func() {
			payments, err := c.ListPayments(ctx, limit)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("payments snapshot poll failed", zap.Error(err))
				return
			}
			deliverPayments(snapshots, payments)
		}

		poll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	return snapshots, sub
}

// SubscribeDebtState polls the debt document and delivers full snapshots.
func (c *Client) SubscribeDebtState(
	ctx context.Context,
	interval time.Duration,
	log *zap.Logger,
) (<-chan DebtState, *Subscription) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	snapshots := make(chan DebtState, 1)

	go func() {
		defer close(sub.done)
		defer close(snapshots)

		poll := func() {
			state, err := c.GetDebtState(ctx)
			if err != nil {
				if ctx.Err() != nil || IsNotFound(err) {
					return
				}
				log.Warn("debt state snapshot poll failed", zap.Error(err))
				return
			}
			deliverDebtState(snapshots, *state)
		}

		poll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	return snapshots, sub
}

// deliverPayments replaces a pending unread snapshot so a slow consumer
// always sees the latest state instead of a backlog.
func deliverPayments(ch chan []Payment, snapshot []Payment) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func deliverDebtState(ch chan DebtState, snapshot DebtState) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
