// Package debt tracks the revolving balance and applies payments to it.
package debt

import (
	"time"

	"github.com/kmsantiago/paydown/internal/adb"
	"github.com/kmsantiago/paydown/internal/billing"
	"github.com/kmsantiago/paydown/internal/money"
)

// State is the tracked debt, a singleton per installation.
type State struct {
	CurrentPrincipal float64   `json:"currentPrincipal"`
	InterestRate     float64   `json:"interestRate"` // monthly nominal, e.g. 0.035
	MinimumPayment   float64   `json:"minimumPayment"`
	StatementDate    time.Time `json:"statementDate"`
	DueDate          time.Time `json:"dueDate"`
}

// PaymentCalculation is the preview of applying a payment.
type PaymentCalculation struct {
	Interest           float64
	Principal          float64
	RemainingBalance   float64
	NextMinimumPayment float64
}

// ScheduleEntry is one month of a simulated payoff schedule.
type ScheduleEntry struct {
	Month     int
	Payment   float64
	Interest  float64
	Principal float64
	Balance   float64
}

// Calculator wraps a State and applies the payment rules to it. Amounts fed
// into calculation methods must already be validated as positive finite
// numbers; the calculator itself never errors on valid numeric input.
type Calculator struct {
	state State

	// customMinPayment, when set, overrides the 5%/floor rule while a
	// balance remains outstanding.
	customMinPayment *float64
}

// NewCalculator builds a Calculator around an existing state.
func NewCalculator(state State) *Calculator {
	return &Calculator{state: state}
}

// NewCalculatorWithCustomMinimum restores a calculator whose minimum payment
// was previously overridden.
func NewCalculatorWithCustomMinimum(state State, customMin float64) *Calculator {
	c := NewCalculator(state)
	c.customMinPayment = &customMin
	return c
}

// State returns a copy of the current debt state.
func (c *Calculator) State() State {
	return c.state
}

// CustomMinimum reports the override, if one is set.
func (c *Calculator) CustomMinimum() (float64, bool) {
	if c.customMinPayment == nil {
		return 0, false
	}
	return *c.customMinPayment, true
}

// CalculatePayment previews how a payment would split between interest and
// principal without mutating state.
func (c *Calculator) CalculatePayment(paymentAmount float64) PaymentCalculation {
	split := adb.PaymentSplit(c.state.CurrentPrincipal, paymentAmount, c.state.InterestRate, billing.CycleDays)
	return PaymentCalculation{
		Interest:           split.Interest,
		Principal:          split.Principal,
		RemainingBalance:   split.RemainingBalance,
		NextMinimumPayment: money.Round2(c.nextMinimum(split.RemainingBalance)),
	}
}

// ApplyPayment commits a payment: principal drops to the remaining balance
// and the minimum payment is recomputed. This is the only path that advances
// the principal downward via a payment.
func (c *Calculator) ApplyPayment(paymentAmount float64) PaymentCalculation {
	calc := c.CalculatePayment(paymentAmount)
	c.state.CurrentPrincipal = calc.RemainingBalance
	c.state.MinimumPayment = calc.NextMinimumPayment
	return calc
}

// AdjustPrincipal overrides the principal directly, for manual corrections,
// and recomputes the minimum payment under the same rules.
func (c *Calculator) AdjustPrincipal(newPrincipal float64) {
	c.state.CurrentPrincipal = money.Round2(newPrincipal)
	c.state.MinimumPayment = money.Round2(c.nextMinimum(c.state.CurrentPrincipal))
}

// UpdateMinimumPayment sets a custom minimum-payment override. The override
// sticks until the balance reaches zero, at which point the standard rule
// takes over again.
func (c *Calculator) UpdateMinimumPayment(newMinPayment float64) {
	v := money.Round2(newMinPayment)
	c.customMinPayment = &v
	c.state.MinimumPayment = v
}

// SimulatePayments projects a month-by-month payoff schedule at a constant
// monthly payment. Read-only; the calculator's live state is untouched. The
// final month's recorded payment is capped at what is actually owed.
func (c *Calculator) SimulatePayments(monthlyPayment float64, months int) []ScheduleEntry {
	if months <= 0 {
		months = 60
	}

	schedule := make([]ScheduleEntry, 0, months)
	balance := c.state.CurrentPrincipal

	for month := 1; month <= months && balance > 0; month++ {
		interest := adb.SimpleInterest(balance, c.state.InterestRate, billing.CycleDays)

		principal := monthlyPayment - interest
		if principal < 0 {
			principal = 0
		}
		actualPayment := monthlyPayment
		if owed := balance + interest; actualPayment > owed {
			actualPayment = owed
		}

		balance -= principal
		if balance < 0 {
			balance = 0
		}

		schedule = append(schedule, ScheduleEntry{
			Month:     month,
			Payment:   money.Round2(actualPayment),
			Interest:  money.Round2(interest),
			Principal: money.Round2(principal),
			Balance:   money.Round2(balance),
		})

		if balance == 0 {
			break
		}
	}

	return schedule
}

func (c *Calculator) nextMinimum(remainingBalance float64) float64 {
	if c.customMinPayment != nil && remainingBalance > 0 {
		return *c.customMinPayment
	}
	return billing.MinimumPayment(remainingBalance)
}
