// Package cache is the read-through snapshot cache. It is a freshness
// optimisation only; a cache miss is never an error condition and cached
// data is never treated as authoritative.
package cache

import "context"

// Cached keys. The whole working set is two snapshots, so stores may treat
// these as the exhaustive key list.
const (
	KeyDebtState      = "debt-state"
	KeyPaymentHistory = "payment-history"
)

// Store is the raw key/value backend under the cache. The in-process Memory
// store is the default; Redis serves self-hosted deployments that want the
// cache shared across processes.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
