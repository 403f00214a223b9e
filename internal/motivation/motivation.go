// Package motivation derives milestones, interest savings, and payoff
// projections from payment history and the current debt state. Everything
// here is recomputed from scratch on each call; empty or missing history
// yields zero-valued results rather than errors.
package motivation

import (
	"time"

	"github.com/kmsantiago/paydown/internal/adb"
	"github.com/kmsantiago/paydown/internal/billing"
	"github.com/kmsantiago/paydown/internal/money"
)

// MaxProjectionMonths bounds every payoff simulation (50 years).
const MaxProjectionMonths = 600

// Thresholds are the celebrated progress milestones, in scan order.
var Thresholds = []int{25, 50, 75, 100}

// PaymentRecord is the slice of a payment the analytics need.
type PaymentRecord struct {
	Amount   float64
	Interest float64
}

// Milestone describes one progress threshold.
type Milestone struct {
	Percentage      int
	Label           string
	Reached         bool
	AmountPaid      float64
	RemainingAmount float64
}

// InterestSavings compares actual interest paid against a minimum-only
// counterfactual at the same progress point.
type InterestSavings struct {
	TotalInterestPaid              float64
	TotalInterestSavedVsMinimum    float64
	ProjectedInterestIfMinimumOnly float64
	SavingsPercentage              float64
}

// DebtFreeProjection estimates the payoff date from recent payment behavior.
type DebtFreeProjection struct {
	ProjectedPayoffDate    time.Time
	MonthsRemaining        int
	MonthsSavedVsMinimum   int
	AverageMonthlyPayment  float64
	ProjectedTotalInterest float64
	DaysUntilNextPayment   int
	NextPaymentDue         time.Time
}

var milestoneLabels = map[int]string{
	25:  "25% Paid Off!",
	50:  "Halfway There!",
	75:  "75% Complete!",
	100: "Debt Free!",
}

// Milestones reports each threshold's status for the current principal.
func Milestones(currentPrincipal, initialDebt float64) []Milestone {
	totalPaid := initialDebt - currentPrincipal
	progress := progressPercent(currentPrincipal, initialDebt)

	out := make([]Milestone, 0, len(Thresholds))
	for _, threshold := range Thresholds {
		amountPaid := initialDebt * float64(threshold) / 100
		remaining := amountPaid - totalPaid
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, Milestone{
			Percentage:      threshold,
			Label:           milestoneLabels[threshold],
			Reached:         progress >= float64(threshold),
			AmountPaid:      amountPaid,
			RemainingAmount: remaining,
		})
	}
	return out
}

// CheckNewMilestone returns the first threshold crossed between the previous
// and current principal, or 0 when none was crossed. A payment large enough
// to cross several thresholds at once still reports only the first one in
// scan order; the next crossing is reported on a later update.
func CheckNewMilestone(previousPrincipal, currentPrincipal, initialDebt float64) int {
	previous := progressPercent(previousPrincipal, initialDebt)
	current := progressPercent(currentPrincipal, initialDebt)

	for _, threshold := range Thresholds {
		if previous < float64(threshold) && current >= float64(threshold) {
			return threshold
		}
	}
	return 0
}

// ComputeInterestSavings sums actual interest paid and simulates a
// minimum-only repayment of the initial debt for comparison. The simulation
// halts when the recomputed minimum drops below the starting minimum (the
// repayment tail no longer resembles the fixed-minimum scenario) and is
// capped at 600 months regardless. The counterfactual interest is scaled to
// the user's current progress so the comparison is like-for-like.
func ComputeInterestSavings(payments []PaymentRecord, currentPrincipal, initialDebt, initialMinPayment, monthlyRate float64) InterestSavings {
	totalInterestPaid := 0.0
	for _, p := range payments {
		totalInterestPaid += p.Interest
	}

	projectedBalance := initialDebt
	projectedTotalInterest := 0.0
	for month := 0; projectedBalance > 0 && month < MaxProjectionMonths; month++ {
		interest := adb.SimpleInterest(projectedBalance, monthlyRate, billing.CycleDays)
		principal := initialMinPayment - interest
		if principal < 0 {
			principal = 0
		}

		projectedTotalInterest += interest
		projectedBalance -= principal

		newMinimum := billing.MinimumPayment(projectedBalance)
		if newMinimum < initialMinPayment {
			break
		}
	}

	progressRatio := 0.0
	if initialDebt > 0 {
		progressRatio = (initialDebt - currentPrincipal) / initialDebt
	}
	projectedAtThisPoint := projectedTotalInterest * progressRatio

	saved := projectedAtThisPoint - totalInterestPaid
	if saved < 0 {
		saved = 0
	}
	savingsPct := 0.0
	if projectedAtThisPoint > 0 {
		savingsPct = saved / projectedAtThisPoint * 100
	}

	return InterestSavings{
		TotalInterestPaid:              money.Round2(totalInterestPaid),
		TotalInterestSavedVsMinimum:    money.Round2(saved),
		ProjectedInterestIfMinimumOnly: money.Round2(projectedTotalInterest),
		SavingsPercentage:              money.Round2(savingsPct),
	}
}

// ProjectDebtFreeDate projects the payoff date assuming the user keeps paying
// the average of their three most recent payments (falling back to the
// minimum payment when there is no history). Whenever that assumed payment
// fails to cover the interest charge, the month falls back to the statutory
// minimum-payment rule. A minimum-only payoff is simulated separately for the
// months-saved comparison.
func ProjectDebtFreeDate(payments []PaymentRecord, currentPrincipal, minimumPayment, monthlyRate float64, now time.Time) DebtFreeProjection {
	recent := payments
	if len(recent) > 3 {
		recent = recent[:3]
	}
	average := minimumPayment
	if len(recent) > 0 {
		sum := 0.0
		for _, p := range recent {
			sum += p.Amount
		}
		average = sum / float64(len(recent))
	}

	balance := currentPrincipal
	totalInterest := 0.0
	monthsRemaining := 0
	for balance > 0 && monthsRemaining < MaxProjectionMonths {
		interest := adb.SimpleInterest(balance, monthlyRate, billing.CycleDays)
		principal := average - interest
		if principal < 0 {
			principal = 0
		}
		if principal > balance {
			principal = balance
		}

		totalInterest += interest
		balance -= principal
		monthsRemaining++

		if principal <= 0 {
			minInterest := adb.SimpleInterest(balance, monthlyRate, billing.CycleDays)
			minPrincipal := minimumPayment - minInterest
			if minPrincipal < 0 {
				minPrincipal = 0
			}
			if minPrincipal > balance {
				minPrincipal = balance
			}
			balance -= minPrincipal
		}
	}

	minBalance := currentPrincipal
	monthsIfMinimumOnly := 0
	minPaymentAmount := billing.MinimumPayment(currentPrincipal)
	for minBalance > 0 && monthsIfMinimumOnly < MaxProjectionMonths {
		interest := adb.SimpleInterest(minBalance, monthlyRate, billing.CycleDays)
		principal := minPaymentAmount - interest
		if principal < 0 {
			principal = 0
		}
		minBalance -= principal
		monthsIfMinimumOnly++

		// A minimum that cannot cover interest never pays off; the month cap
		// alone would spin 600 iterations for nothing.
		if principal == 0 {
			monthsIfMinimumOnly = MaxProjectionMonths
			break
		}
	}

	monthsSaved := monthsIfMinimumOnly - monthsRemaining
	if monthsSaved < 0 {
		monthsSaved = 0
	}

	nextDue := billing.NextDueDate(now)

	return DebtFreeProjection{
		ProjectedPayoffDate:    now.AddDate(0, monthsRemaining, 0),
		MonthsRemaining:        monthsRemaining,
		MonthsSavedVsMinimum:   monthsSaved,
		AverageMonthlyPayment:  money.Round2(average),
		ProjectedTotalInterest: money.Round2(totalInterest),
		DaysUntilNextPayment:   billing.DaysUntilDue(now),
		NextPaymentDue:         nextDue,
	}
}

// Message returns the motivational line for a progress percentage.
func Message(progressPct float64) string {
	switch {
	case progressPct >= 100:
		return "Congratulations! You're debt-free!"
	case progressPct >= 75:
		return "You're in the home stretch! Keep pushing!"
	case progressPct >= 50:
		return "Halfway there! Your hard work is paying off!"
	case progressPct >= 25:
		return "Great progress! You've paid off a quarter of your debt!"
	case progressPct > 0:
		return "Every payment counts! Keep building momentum!"
	default:
		return "Start your debt-free journey today!"
	}
}

// ProgressPercent reports how much of the initial debt has been paid off.
func ProgressPercent(currentPrincipal, initialDebt float64) float64 {
	return progressPercent(currentPrincipal, initialDebt)
}

func progressPercent(currentPrincipal, initialDebt float64) float64 {
	if initialDebt <= 0 {
		return 0
	}
	return (initialDebt - currentPrincipal) / initialDebt * 100
}
