package syncsvc

import (
	"context"
	"time"

	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

// DebtStore is the durable local home of the debt document.
type DebtStore interface {
	Get(ctx context.Context) (debt.State, bool, error)
	Save(ctx context.Context, state debt.State) error
	Clear(ctx context.Context) error
}

// PaymentStore is the durable local home of payment records.
type PaymentStore interface {
	Save(ctx context.Context, p storage.PaymentRecord) error
	Get(ctx context.Context, id string) (storage.PaymentRecord, bool, error)
	List(ctx context.Context, limit int) ([]storage.PaymentRecord, error)
	ReplaceID(ctx context.Context, tempID, remoteID string) error
	Delete(ctx context.Context, id string) error
	ReplaceSnapshot(ctx context.Context, records []storage.PaymentRecord) error
	Clear(ctx context.Context) error
}

// MilestoneStore is the durable local home of payoff milestones.
type MilestoneStore interface {
	Save(ctx context.Context, m storage.MilestoneRecord) error
	Get(ctx context.Context, threshold int) (storage.MilestoneRecord, bool, error)
	List(ctx context.Context) ([]storage.MilestoneRecord, error)
	MarkCelebrated(ctx context.Context, threshold int) error
	Clear(ctx context.Context) error
}

// QueueStore holds operations awaiting replay. The coordinator is the only
// component that reads or writes it.
type QueueStore interface {
	Enqueue(ctx context.Context, item storage.QueueItem) error
	ListFIFO(ctx context.Context) ([]storage.QueueItem, error)
	SetRetryCount(ctx context.Context, id string, retryCount int) error
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// SyncStateStore keeps per-collection replay bookkeeping.
type SyncStateStore interface {
	Get(ctx context.Context, collection string) (storage.SyncState, bool, error)
	RecordAttempt(ctx context.Context, collection string, at time.Time) error
	RecordSuccess(ctx context.Context, collection string, at time.Time) error
	RecordError(ctx context.Context, collection string, at time.Time, syncErr error) error
}

// Remote is the gateway to the hosted document store.
type Remote interface {
	Ping(ctx context.Context) error
	GetDebtState(ctx context.Context) (*remote.DebtState, error)
	PutDebtState(ctx context.Context, state remote.DebtState) error
	AddPayment(ctx context.Context, payment remote.Payment) (string, error)
	ListPayments(ctx context.Context, limit int) ([]remote.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	PutMilestone(ctx context.Context, milestone remote.Milestone) error
	MergeMilestoneCelebrated(ctx context.Context, threshold int, celebrated bool) error
	ResetAll(ctx context.Context) error
}
