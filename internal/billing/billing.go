// Package billing holds the fixed billing-cycle rules for the tracked card.
//
// The cycle is modeled as a fixed 30-day period: a new statement opens on the
// 22nd of each month and payment falls due on the 17th. Interest accrues at a
// nominal monthly rate with a daily rate of monthlyRate/30 regardless of
// calendar month length.
package billing

import "time"

const (
	// CycleStartDay is the day of month a new billing cycle starts.
	CycleStartDay = 22

	// DueDay is the day of month payment is due.
	DueDay = 17

	// CycleDays is the fixed billing cycle length.
	CycleDays = 30

	// MinPaymentRate and MinPaymentFloor define the issuer's minimum payment:
	// 5% of the outstanding balance or 500, whichever is higher.
	MinPaymentRate  = 0.05
	MinPaymentFloor = 500.0
)

// NextDueDate returns the next payment due date on or after now.
func NextDueDate(now time.Time) time.Time {
	due := time.Date(now.Year(), now.Month(), DueDay, 0, 0, 0, 0, now.Location())
	if now.Day() > DueDay {
		due = due.AddDate(0, 1, 0)
	}
	return due
}

// CurrentCycleStart returns the start date of the billing cycle containing now.
func CurrentCycleStart(now time.Time) time.Time {
	start := time.Date(now.Year(), now.Month(), CycleStartDay, 0, 0, 0, 0, now.Location())
	if now.Day() < CycleStartDay {
		start = start.AddDate(0, -1, 0)
	}
	return start
}

// DaysUntilDue returns the number of days from now until the next due date,
// rounding partial days up.
func DaysUntilDue(now time.Time) int {
	due := NextDueDate(now)
	diff := due.Sub(now)
	days := int(diff.Hours() / 24)
	if diff > time.Duration(days)*24*time.Hour {
		days++
	}
	return days
}

// MinimumPayment applies the 5%/floor rule to a balance. A zero balance owes
// nothing.
func MinimumPayment(balance float64) float64 {
	if balance <= 0 {
		return 0
	}
	min := balance * MinPaymentRate
	if min < MinPaymentFloor {
		return MinPaymentFloor
	}
	return min
}
