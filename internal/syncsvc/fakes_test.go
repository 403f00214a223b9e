package syncsvc

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

type fakeDebtStore struct {
	state *debt.State
	err   error
}

func (f *fakeDebtStore) Get(context.Context) (debt.State, bool, error) {
	if f.err != nil {
		return debt.State{}, false, f.err
	}
	if f.state == nil {
		return debt.State{}, false, nil
	}
	return *f.state, true, nil
}

func (f *fakeDebtStore) Save(_ context.Context, state debt.State) error {
	if f.err != nil {
		return f.err
	}
	f.state = &state
	return nil
}

func (f *fakeDebtStore) Clear(context.Context) error {
	f.state = nil
	return nil
}

type fakePaymentStore struct {
	records map[string]storage.PaymentRecord
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{records: make(map[string]storage.PaymentRecord)}
}

func (f *fakePaymentStore) Save(_ context.Context, p storage.PaymentRecord) error {
	f.records[p.ID] = p
	return nil
}

func (f *fakePaymentStore) Get(_ context.Context, id string) (storage.PaymentRecord, bool, error) {
	p, ok := f.records[id]
	return p, ok, nil
}

func (f *fakePaymentStore) List(_ context.Context, limit int) ([]storage.PaymentRecord, error) {
	out := make([]storage.PaymentRecord, 0, len(f.records))
	for _, p := range f.records {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePaymentStore) ReplaceID(_ context.Context, tempID, remoteID string) error {
	p, ok := f.records[tempID]
	if !ok {
		return storage.ErrNotFound
	}
	delete(f.records, tempID)
	p.ID = remoteID
	p.Synced = true
	f.records[remoteID] = p
	return nil
}

func (f *fakePaymentStore) Delete(_ context.Context, id string) error {
	delete(f.records, id)
	return nil
}

func (f *fakePaymentStore) ReplaceSnapshot(_ context.Context, records []storage.PaymentRecord) error {
	f.records = make(map[string]storage.PaymentRecord, len(records))
	for _, p := range records {
		f.records[p.ID] = p
	}
	return nil
}

func (f *fakePaymentStore) Clear(context.Context) error {
	f.records = make(map[string]storage.PaymentRecord)
	return nil
}

type fakeMilestoneStore struct {
	records map[int]storage.MilestoneRecord
}

func newFakeMilestoneStore() *fakeMilestoneStore {
	return &fakeMilestoneStore{records: make(map[int]storage.MilestoneRecord)}
}

func (f *fakeMilestoneStore) Save(_ context.Context, m storage.MilestoneRecord) error {
	if _, exists := f.records[m.Threshold]; exists {
		return nil
	}
	f.records[m.Threshold] = m
	return nil
}

func (f *fakeMilestoneStore) Get(_ context.Context, threshold int) (storage.MilestoneRecord, bool, error) {
	m, ok := f.records[threshold]
	return m, ok, nil
}

func (f *fakeMilestoneStore) List(context.Context) ([]storage.MilestoneRecord, error) {
	out := make([]storage.MilestoneRecord, 0, len(f.records))
	for _, m := range f.records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (f *fakeMilestoneStore) MarkCelebrated(_ context.Context, threshold int) error {
	m, ok := f.records[threshold]
	if !ok {
		return storage.ErrNotFound
	}
	m.Celebrated = true
	f.records[threshold] = m
	return nil
}

func (f *fakeMilestoneStore) Clear(context.Context) error {
	f.records = make(map[int]storage.MilestoneRecord)
	return nil
}

type fakeQueue struct {
	items []storage.QueueItem
}

func (f *fakeQueue) Enqueue(_ context.Context, item storage.QueueItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeQueue) ListFIFO(context.Context) ([]storage.QueueItem, error) {
	out := make([]storage.QueueItem, len(f.items))
	copy(out, f.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out, nil
}

func (f *fakeQueue) SetRetryCount(_ context.Context, id string, retryCount int) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].RetryCount = retryCount
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeQueue) Remove(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeQueue) Count(context.Context) (int, error) {
	return len(f.items), nil
}

func (f *fakeQueue) Clear(context.Context) error {
	f.items = nil
	return nil
}

type fakeSyncState struct {
	states map[string]storage.SyncState
}

func newFakeSyncState() *fakeSyncState {
	return &fakeSyncState{states: make(map[string]storage.SyncState)}
}

func (f *fakeSyncState) Get(_ context.Context, collection string) (storage.SyncState, bool, error) {
	s, ok := f.states[collection]
	return s, ok, nil
}

func (f *fakeSyncState) RecordAttempt(_ context.Context, collection string, at time.Time) error {
	s := f.states[collection]
	s.Collection = collection
	s.LastAttempt = &at
	f.states[collection] = s
	return nil
}

func (f *fakeSyncState) RecordSuccess(_ context.Context, collection string, at time.Time) error {
	s := f.states[collection]
	s.Collection = collection
	s.LastAttempt = &at
	s.LastSuccess = &at
	s.LastErrorMsg = ""
	f.states[collection] = s
	return nil
}

func (f *fakeSyncState) RecordError(_ context.Context, collection string, at time.Time, syncErr error) error {
	s := f.states[collection]
	s.Collection = collection
	s.LastAttempt = &at
	if syncErr != nil {
		s.LastErrorMsg = syncErr.Error()
	}
	f.states[collection] = s
	return nil
}

// fakeRemote records calls and fails on demand. Setting failWith makes
// every operation return that error until it is cleared.
type fakeRemote struct {
	failWith error

	debtState    *remote.DebtState
	payments     map[string]remote.Payment
	milestones   map[int]remote.Milestone
	nextID       int
	addedOrder   []string
	deletedIDs   []string
	resetCalled  bool
	mergedFlags  map[int]bool
	putDebtCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		payments:    make(map[string]remote.Payment),
		milestones:  make(map[int]remote.Milestone),
		mergedFlags: make(map[int]bool),
	}
}

func (f *fakeRemote) Ping(context.Context) error {
	return f.failWith
}

func (f *fakeRemote) GetDebtState(context.Context) (*remote.DebtState, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.debtState == nil {
		return nil, &remote.Error{Code: remote.CodeNotFound, Message: "no debt document"}
	}
	out := *f.debtState
	return &out, nil
}

func (f *fakeRemote) PutDebtState(_ context.Context, state remote.DebtState) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.debtState = &state
	f.putDebtCalls++
	return nil
}

func (f *fakeRemote) AddPayment(_ context.Context, payment remote.Payment) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.nextID++
	id := "srv-" + strconv.Itoa(f.nextID)
	payment.ID = id
	f.payments[id] = payment
	f.addedOrder = append(f.addedOrder, id)
	return id, nil
}

func (f *fakeRemote) ListPayments(_ context.Context, limit int) ([]remote.Payment, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]remote.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRemote) DeletePayment(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.payments[id]; !ok {
		return &remote.Error{Code: remote.CodeNotFound, Message: "no such payment"}
	}
	delete(f.payments, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeRemote) PutMilestone(_ context.Context, milestone remote.Milestone) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.milestones[milestone.Threshold] = milestone
	return nil
}

func (f *fakeRemote) MergeMilestoneCelebrated(_ context.Context, threshold int, celebrated bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mergedFlags[threshold] = celebrated
	return nil
}

func (f *fakeRemote) ResetAll(context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.debtState = nil
	f.payments = make(map[string]remote.Payment)
	f.milestones = make(map[int]remote.Milestone)
	f.resetCalled = true
	return nil
}
