package syncsvc

import (
	"context"
	"sync"
	"time"
)

// DefaultProbeInterval is how often the watcher checks connectivity when
// the caller does not choose an interval.
const DefaultProbeInterval = 30 * time.Second

// Watcher drives the coordinator's online state by probing the remote. The
// probe is a cheap authenticated ping; any failure counts as offline.
type Watcher struct {
	coordinator *Coordinator
	interval    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(coordinator *Coordinator, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Watcher{coordinator: coordinator, interval: interval}
}

// Start begins probing. The first probe runs immediately so startup does
// not wait a full interval to learn the connectivity state.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx, w.done)
}

// Stop halts probing and waits for the probe loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	err := w.coordinator.remote.Ping(ctx)
	if ctx.Err() != nil {
		return
	}
	w.coordinator.SetOnline(ctx, err == nil)
}
