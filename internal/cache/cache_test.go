package cache

import (
	"context"
	"testing"
	"time"
)

type debtSnapshot struct {
	Principal float64 `json:"principal"`
	Minimum   float64 `json:"minimum"`
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemory(), time.Minute)

	want := debtSnapshot{Principal: 50249.75, Minimum: 2512.49}
	if err := c.PutJSON(ctx, KeyDebtState, want); err != nil {
		t.Fatalf("PutJSON() unexpected error: %v", err)
	}

	var got debtSnapshot
	ok, err := c.GetJSON(ctx, KeyDebtState, &got)
	if err != nil {
		t.Fatalf("GetJSON() unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("GetJSON() ok = false, want true")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGetMissReportsFalse(t *testing.T) {
	t.Parallel()

	c := New(NewMemory(), time.Minute)

	var out debtSnapshot
	ok, err := c.GetJSON(context.Background(), KeyDebtState, &out)
	if err != nil {
		t.Fatalf("GetJSON() unexpected error: %v", err)
	}
	if ok {
		t.Fatal("GetJSON() ok = true, want false")
	}
}

func TestStaleEntryIsEvicted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemory()
	c := New(store, time.Minute)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	if err := c.PutJSON(ctx, KeyDebtState, debtSnapshot{Principal: 100}); err != nil {
		t.Fatalf("PutJSON() unexpected error: %v", err)
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	var out debtSnapshot
	ok, err := c.GetJSON(ctx, KeyDebtState, &out)
	if err != nil {
		t.Fatalf("GetJSON() unexpected error: %v", err)
	}
	if ok {
		t.Fatal("GetJSON() ok = true for stale entry, want false")
	}

	if _, exists, _ := store.Get(ctx, KeyDebtState); exists {
		t.Fatal("stale entry still present, want evicted")
	}
}

func TestVersionMismatchIsEvicted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemory()
	c := New(store, time.Minute)

	stale := `{"data":{"principal":100},"timestamp":"2099-01-01T00:00:00Z","version":"0"}`
	if err := store.Set(ctx, KeyDebtState, stale); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}

	var out debtSnapshot
	ok, err := c.GetJSON(ctx, KeyDebtState, &out)
	if err != nil {
		t.Fatalf("GetJSON() unexpected error: %v", err)
	}
	if ok {
		t.Fatal("GetJSON() ok = true for version mismatch, want false")
	}

	if _, exists, _ := store.Get(ctx, KeyDebtState); exists {
		t.Fatal("mismatched entry still present, want evicted")
	}
}

func TestCorruptEntryIsEvicted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemory()
	c := New(store, time.Minute)

	if err := store.Set(ctx, KeyDebtState, "not json"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}

	var out debtSnapshot
	ok, err := c.GetJSON(ctx, KeyDebtState, &out)
	if err != nil {
		t.Fatalf("GetJSON() unexpected error: %v", err)
	}
	if ok {
		t.Fatal("GetJSON() ok = true for corrupt entry, want false")
	}

	if _, exists, _ := store.Get(ctx, KeyDebtState); exists {
		t.Fatal("corrupt entry still present, want evicted")
	}
}

func TestClearDropsAllKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemory(), time.Minute)

	if err := c.PutJSON(ctx, KeyDebtState, debtSnapshot{Principal: 1}); err != nil {
		t.Fatalf("PutJSON() unexpected error: %v", err)
	}
	if err := c.PutJSON(ctx, KeyPaymentHistory, []debtSnapshot{}); err != nil {
		t.Fatalf("PutJSON() unexpected error: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() unexpected error: %v", err)
	}

	var out debtSnapshot
	if ok, _ := c.GetJSON(ctx, KeyDebtState, &out); ok {
		t.Fatal("debt-state entry survived Clear")
	}
	var history []debtSnapshot
	if ok, _ := c.GetJSON(ctx, KeyPaymentHistory, &history); ok {
		t.Fatal("payment-history entry survived Clear")
	}
}
