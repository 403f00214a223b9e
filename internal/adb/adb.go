// Package adb implements Average Daily Balance interest calculations.
//
// The issuer's method is approximated with a fixed 30-day billing cycle and a
// daily rate of monthlyRate/30, so a constant balance held for a full cycle
// accrues exactly balance*monthlyRate. Every monetary output is rounded to two
// decimal places independently; callers must not re-round or re-sum the parts
// expecting exact conservation, as the split may drift from the nominal charge
// by up to 0.01.
package adb

import (
	"sort"
	"time"

	"github.com/kmsantiago/paydown/internal/billing"
	"github.com/kmsantiago/paydown/internal/money"
)

// DailyBalance is the balance on record for a single day.
type DailyBalance struct {
	Date    time.Time
	Balance float64
}

// InterestResult describes an ADB interest computation over one cycle.
type InterestResult struct {
	TotalInterest       float64
	AverageDailyBalance float64
	DaysInCycle         int
	DailyRate           float64
}

// Split is the interest/principal breakdown of a single payment.
type Split struct {
	Interest         float64
	Principal        float64
	RemainingBalance float64
}

// DailyRate converts a nominal monthly rate to the fixed-cycle daily rate.
func DailyRate(monthlyRate float64) float64 {
	return monthlyRate / billing.CycleDays
}

// SimpleInterest computes the interest charge for a balance held constant over
// daysInCycle days. Used for the end-of-cycle payment assumption.
func SimpleInterest(balance, monthlyRate float64, daysInCycle int) float64 {
	interest := balance * DailyRate(monthlyRate) * float64(daysInCycle)
	return money.Round2(interest)
}

// ComputeInterest derives the Average Daily Balance across [start, end]
// inclusive, forward-filling the last known balance into days without an
// entry, and applies the daily rate across the cycle.
func ComputeInterest(dailyBalances []DailyBalance, start, end time.Time, monthlyRate float64) InterestResult {
	daysInCycle := daysBetweenInclusive(start, end)
	dailyRate := DailyRate(monthlyRate)

	if len(dailyBalances) == 0 {
		return InterestResult{DaysInCycle: daysInCycle, DailyRate: dailyRate}
	}

	sorted := make([]DailyBalance, len(dailyBalances))
	copy(sorted, dailyBalances)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	byDay := make(map[string]float64, len(sorted))
	for _, entry := range sorted {
		byDay[dayKey(entry.Date)] = entry.Balance
	}

	sum := 0.0
	current := sorted[0].Balance
	for day := startOfDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		if balance, ok := byDay[dayKey(day)]; ok {
			current = balance
		}
		sum += current
	}

	average := sum / float64(daysInCycle)
	total := average * dailyRate * float64(daysInCycle)

	return InterestResult{
		TotalInterest:       money.Round2(total),
		AverageDailyBalance: money.Round2(average),
		DaysInCycle:         daysInCycle,
		DailyRate:           dailyRate,
	}
}

// MidCycleInterest computes cycle interest when a payment lands mid-cycle.
// The cycle is the fixed 30 days starting on cycleStartDay; a payment day
// earlier in the month than the cycle start wraps across the month boundary.
func MidCycleInterest(initialBalance, paymentAmount float64, paymentDay, cycleStartDay int, monthlyRate float64) InterestResult {
	var daysBefore int
	if paymentDay >= cycleStartDay {
		daysBefore = paymentDay - cycleStartDay
	} else {
		daysBefore = (billing.CycleDays - cycleStartDay) + paymentDay
	}
	daysAfter := billing.CycleDays - daysBefore

	balanceAfter := initialBalance - paymentAmount
	if balanceAfter < 0 {
		balanceAfter = 0
	}

	sum := initialBalance*float64(daysBefore) + balanceAfter*float64(daysAfter)
	average := sum / billing.CycleDays
	dailyRate := DailyRate(monthlyRate)
	total := average * dailyRate * billing.CycleDays

	return InterestResult{
		TotalInterest:       money.Round2(total),
		AverageDailyBalance: money.Round2(average),
		DaysInCycle:         billing.CycleDays,
		DailyRate:           dailyRate,
	}
}

// PaymentSplit divides a payment between interest and principal. A payment
// that does not cover the cycle's interest charge is absorbed entirely by
// interest and leaves the balance unchanged; principal is capped at the
// current balance so an overpayment cannot drive the balance negative.
func PaymentSplit(currentBalance, paymentAmount, monthlyRate float64, daysInCycle int) Split {
	interestCharge := SimpleInterest(currentBalance, monthlyRate, daysInCycle)

	var interestPayment, principalPayment float64
	if paymentAmount <= interestCharge {
		interestPayment = paymentAmount
		principalPayment = 0
	} else {
		interestPayment = interestCharge
		principalPayment = paymentAmount - interestCharge
		if principalPayment > currentBalance {
			principalPayment = currentBalance
		}
	}

	remaining := currentBalance - principalPayment
	if remaining < 0 {
		remaining = 0
	}

	return Split{
		Interest:         money.Round2(interestPayment),
		Principal:        money.Round2(principalPayment),
		RemainingBalance: money.Round2(remaining),
	}
}

// ProjectInterestCharges simulates up to months cycles of end-of-cycle
// payments and returns the interest charged each month until the balance
// reaches zero.
func ProjectInterestCharges(balance, monthlyPayment, monthlyRate float64, months int) []float64 {
	charges := make([]float64, 0, months)

	for month := 0; month < months && balance > 0; month++ {
		interest := SimpleInterest(balance, monthlyRate, billing.CycleDays)
		charges = append(charges, interest)

		principal := monthlyPayment - interest
		if principal < 0 {
			principal = 0
		}
		if principal > balance {
			principal = balance
		}
		balance -= principal
		if balance < 0 {
			balance = 0
		}
	}

	return charges
}

func daysBetweenInclusive(start, end time.Time) int {
	days := int(startOfDay(end).Sub(startOfDay(start)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
