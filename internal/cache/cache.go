package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Version tags every entry with the snapshot schema it was written under.
// Bumping it invalidates all previously cached entries on next read.
const Version = "1"

// DefaultTTL is how long an entry counts as fresh when the caller does not
// configure a TTL.
const DefaultTTL = 5 * time.Minute

// Entry is the stored envelope around a cached snapshot.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
}

// Cache wraps a Store with TTL and schema-version checks.
type Cache struct {
	store Store
	ttl   time.Duration

	// now is swappable for TTL tests.
	now func() time.Time
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// PutJSON caches v under key, stamped with the current time and schema
// version.
func (c *Cache) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache entry %q: %w", key, err)
	}
	entry := Entry{
		Data:      data,
		Timestamp: c.now().UTC(),
		Version:   Version,
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache envelope %q: %w", key, err)
	}
	return c.store.Set(ctx, key, string(encoded))
}

// GetJSON loads the entry under key into out. It reports false, and evicts
// the entry, when the entry is stale or was written under a different
// schema version. Corrupt entries are evicted the same way; the caller
// falls through to an authoritative source either way.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		_ = c.store.Delete(ctx, key)
		return false, nil
	}
	if entry.Version != Version || c.now().UTC().Sub(entry.Timestamp) > c.ttl {
		if err := c.store.Delete(ctx, key); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, out); err != nil {
		_ = c.store.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Invalidate drops a single entry.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
