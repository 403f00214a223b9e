package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PaymentKind distinguishes real payments from manual principal adjustments.
type PaymentKind string

const (
	KindPayment    PaymentKind = "payment"
	KindAdjustment PaymentKind = "adjustment"
)

// PaymentRecord is an immutable append-only payment row. For kind "payment",
// Principal + Interest equals Amount (up to the independent rounding of each
// component); adjustments carry the signed principal delta with zero interest.
type PaymentRecord struct {
	ID        string
	Amount    float64
	PaidAt    time.Time
	Principal float64
	Interest  float64
	Kind      PaymentKind
	Note      *string
	Synced    bool
}

type PaymentsRepo struct {
	db *sql.DB
}

func NewPaymentsRepo(db *sql.DB) *PaymentsRepo {
	return &PaymentsRepo{db: db}
}

func (r *PaymentsRepo) Save(ctx context.Context, p PaymentRecord) error {
	synced := 0
	if p.Synced {
		synced = 1
	}
	const q = `
INSERT INTO payments (id, amount, paid_at, principal, interest, kind, note, synced)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  amount = excluded.amount,
  paid_at = excluded.paid_at,
  principal = excluded.principal,
  interest = excluded.interest,
  kind = excluded.kind,
  note = excluded.note,
  synced = excluded.synced
`
	_, err := r.db.ExecContext(
		ctx,
		q,
		p.ID,
		p.Amount,
		p.PaidAt.UTC().Format(time.RFC3339Nano),
		p.Principal,
		p.Interest,
		string(p.Kind),
		ptrString(p.Note),
		synced,
	)
	if err != nil {
		return fmt.Errorf("upsert payment %q: %w", p.ID, err)
	}
	return nil
}

func (r *PaymentsRepo) Get(ctx context.Context, id string) (PaymentRecord, bool, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, amount, paid_at, principal, interest, kind, note, synced
		 FROM payments WHERE id = ?`,
		id,
	)
	p, err := scanPayment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return PaymentRecord{}, false, nil
		}
		return PaymentRecord{}, false, fmt.Errorf("query payment %q: %w", id, err)
	}
	return p, true, nil
}

// List returns payments newest-first, capped at limit when limit > 0.
func (r *PaymentsRepo) List(ctx context.Context, limit int) ([]PaymentRecord, error) {
	q := `SELECT id, amount, paid_at, principal, interest, kind, note, synced
	      FROM payments ORDER BY paid_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

// ReplaceID swaps a locally-generated temp id for the server-assigned one
// once the remote write succeeds, marking the row synced.
func (r *PaymentsRepo) ReplaceID(ctx context.Context, tempID, remoteID string) error {
	res, err := r.db.ExecContext(
		ctx,
		"UPDATE payments SET id = ?, synced = 1 WHERE id = ?",
		remoteID,
		tempID,
	)
	if err != nil {
		return fmt.Errorf("replace payment id %q -> %q: %w", tempID, remoteID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace payment id %q rows affected: %w", tempID, err)
	}
	if affected == 0 {
		return fmt.Errorf("replace payment id %q: %w", tempID, ErrNotFound)
	}
	return nil
}

func (r *PaymentsRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete payment %q: %w", id, err)
	}
	return nil
}

func (r *PaymentsRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM payments"); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	return nil
}

// ReplaceSnapshot overwrites the local history with an authoritative remote
// snapshot in one transaction.
func (r *PaymentsRepo) ReplaceSnapshot(ctx context.Context, records []PaymentRecord) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payments snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM payments"); err != nil {
		return fmt.Errorf("clear payments for snapshot: %w", err)
	}

	const q = `
INSERT INTO payments (id, amount, paid_at, principal, interest, kind, note, synced)
VALUES (?, ?, ?, ?, ?, ?, ?, 1)
`
	for _, p := range records {
		if _, err = tx.ExecContext(
			ctx,
			q,
			p.ID,
			p.Amount,
			p.PaidAt.UTC().Format(time.RFC3339Nano),
			p.Principal,
			p.Interest,
			string(p.Kind),
			ptrString(p.Note),
		); err != nil {
			return fmt.Errorf("insert snapshot payment %q: %w", p.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit payments snapshot: %w", err)
	}
	return nil
}

func scanPayment(scan func(dest ...any) error) (PaymentRecord, error) {
	var p PaymentRecord
	var paidAt string
	var note sql.NullString
	var synced int
	if err := scan(&p.ID, &p.Amount, &paidAt, &p.Principal, &p.Interest, (*string)(&p.Kind), &note, &synced); err != nil {
		return PaymentRecord{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, paidAt)
	if err != nil {
		return PaymentRecord{}, fmt.Errorf("parse paid_at: %w", err)
	}
	p.PaidAt = t
	if note.Valid {
		p.Note = &note.String
	}
	p.Synced = synced == 1
	return p, nil
}

func ptrString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
