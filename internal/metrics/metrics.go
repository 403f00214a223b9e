// Package metrics exposes sync and queue health as Prometheus series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paydown_sync_attempts_total",
		Help: "Remote sync attempts, labeled by operation type",
	}, []string{"op"})

	SyncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paydown_sync_failures_total",
		Help: "Remote sync failures, labeled by operation type and error code",
	}, []string{"op", "code"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paydown_queue_depth",
		Help: "Operations currently waiting in the offline queue",
	})

	QueueEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paydown_queue_evictions_total",
		Help: "Queue items evicted after exhausting replay attempts",
	})

	ReplayRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paydown_replay_runs_total",
		Help: "Queue replay passes, labeled by outcome",
	}, []string{"result"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paydown_cache_hits_total",
		Help: "Cache hits, labeled by key",
	}, []string{"key"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paydown_cache_misses_total",
		Help: "Cache misses, labeled by key",
	}, []string{"key"})
)
