// Package syncsvc coordinates the durable local store, the snapshot cache
// and the remote document store. Every write lands locally first; the
// remote copy is an eventually consistent mirror fed either directly or
// through the offline replay queue.
package syncsvc

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/cache"
)

// Status is the coarse sync state surfaced to callers.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

const defaultHistoryLimit = 10

// Config carries the first-run seed values and read defaults.
type Config struct {
	InitialDebt       float64
	InitialMinPayment float64
	MonthlyRate       float64
	HistoryLimit      int
}

// Coordinator owns all data movement between the local store, the cache and
// the remote. The replay queue is private to it.
type Coordinator struct {
	cfg        Config
	debts      DebtStore
	payments   PaymentStore
	milestones MilestoneStore
	queue      QueueStore
	syncState  SyncStateStore
	remote     Remote
	cache      *cache.Cache
	log        *zap.Logger
	validate   *validator.Validate

	mu        sync.Mutex
	online    bool
	replaying bool

	listenerMu sync.Mutex
	listeners  map[int]func(Status)
	nextID     int
}

func New(
	cfg Config,
	debts DebtStore,
	payments PaymentStore,
	milestones MilestoneStore,
	queue QueueStore,
	syncState SyncStateStore,
	rem Remote,
	snapshots *cache.Cache,
	log *zap.Logger,
) *Coordinator {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Coordinator{
		cfg:        cfg,
		debts:      debts,
		payments:   payments,
		milestones: milestones,
		queue:      queue,
		syncState:  syncState,
		remote:     rem,
		cache:      snapshots,
		log:        log,
		validate:   validator.New(),
		listeners:  make(map[int]func(Status)),
	}
}

// Online reports the last observed connectivity state.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// SetOnline records a connectivity observation. Only the offline-to-online
// edge triggers a replay pass; repeated observations of the same state are
// no-ops.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	wasOnline := c.online
	c.online = online
	c.mu.Unlock()

	if online == wasOnline {
		return
	}

	if online {
		c.log.Info("connection restored, replaying queued operations")
		if err := c.Replay(ctx); err != nil {
			c.log.Warn("replay after reconnect failed", zap.Error(err))
		}
	} else {
		c.log.Info("connection lost, operations will queue locally")
	}
}

// QueueCount reports how many operations await replay.
func (c *Coordinator) QueueCount(ctx context.Context) (int, error) {
	return c.queue.Count(ctx)
}

// OnStatusChange registers a status listener and returns its unsubscribe
// function. Listeners are invoked synchronously from the sync path and must
// not block.
func (c *Coordinator) OnStatusChange(fn func(Status)) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Coordinator) emitStatus(status Status) {
	c.listenerMu.Lock()
	fns := make([]func(Status), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenerMu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
}
