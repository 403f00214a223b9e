package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kmsantiago/paydown/internal/debt"
)

// debtStateID is the fixed row id: the tracker holds a single debt.
const debtStateID = "current"

type DebtStateRepo struct {
	db *sql.DB
}

func NewDebtStateRepo(db *sql.DB) *DebtStateRepo {
	return &DebtStateRepo{db: db}
}

func (r *DebtStateRepo) Get(ctx context.Context) (debt.State, bool, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT current_principal, interest_rate, minimum_payment, statement_date, due_date
		 FROM debt_state WHERE id = ?`,
		debtStateID,
	)

	var state debt.State
	var statementDate, dueDate string
	if err := row.Scan(&state.CurrentPrincipal, &state.InterestRate, &state.MinimumPayment, &statementDate, &dueDate); err != nil {
		if err == sql.ErrNoRows {
			return debt.State{}, false, nil
		}
		return debt.State{}, false, fmt.Errorf("query debt state: %w", err)
	}

	var err error
	if state.StatementDate, err = time.Parse(time.RFC3339Nano, statementDate); err != nil {
		return debt.State{}, false, fmt.Errorf("parse debt statement_date: %w", err)
	}
	if state.DueDate, err = time.Parse(time.RFC3339Nano, dueDate); err != nil {
		return debt.State{}, false, fmt.Errorf("parse debt due_date: %w", err)
	}

	return state, true, nil
}

func (r *DebtStateRepo) Save(ctx context.Context, state debt.State) error {
	const q = `
INSERT INTO debt_state (id, current_principal, interest_rate, minimum_payment, statement_date, due_date, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  current_principal = excluded.current_principal,
  interest_rate = excluded.interest_rate,
  minimum_payment = excluded.minimum_payment,
  statement_date = excluded.statement_date,
  due_date = excluded.due_date,
  updated_at = excluded.updated_at
`
	_, err := r.db.ExecContext(
		ctx,
		q,
		debtStateID,
		state.CurrentPrincipal,
		state.InterestRate,
		state.MinimumPayment,
		state.StatementDate.UTC().Format(time.RFC3339Nano),
		state.DueDate.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert debt state: %w", err)
	}
	return nil
}

func (r *DebtStateRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM debt_state WHERE id = ?", debtStateID); err != nil {
		return fmt.Errorf("clear debt state: %w", err)
	}
	return nil
}
