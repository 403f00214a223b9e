package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kmsantiago/paydown/internal/billing"
	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/money"
	"github.com/kmsantiago/paydown/internal/motivation"
	"github.com/kmsantiago/paydown/internal/storage"
	"github.com/kmsantiago/paydown/internal/syncsvc"
)

// loadCalculator restores the calculator from the stored state plus any
// persisted minimum-payment override.
func (a *app) loadCalculator(ctx context.Context) (*debt.Calculator, error) {
	state, err := a.coordinator.InitializeDefaults(ctx)
	if err != nil {
		return nil, err
	}

	customMin, ok, err := a.appConfig.GetFloat(ctx, storage.ConfigKeyCustomMinPayment)
	if err != nil {
		return nil, err
	}
	if ok {
		return debt.NewCalculatorWithCustomMinimum(state, customMin), nil
	}
	return debt.NewCalculator(state), nil
}

// initialDebt returns the starting balance progress is measured against.
// It is pinned in local config on first run so changing the environment
// default later does not warp progress percentages.
func (a *app) initialDebt(ctx context.Context) float64 {
	pinned, ok, err := a.appConfig.GetFloat(ctx, storage.ConfigKeyInitialDebt)
	if err == nil && ok {
		return pinned
	}
	if err := a.appConfig.SetFloat(ctx, storage.ConfigKeyInitialDebt, a.cfg.InitialDebt); err != nil {
		a.log.Warn("pin initial debt failed", zap.Error(err))
	}
	return a.cfg.InitialDebt
}

func (a *app) runStatus(ctx context.Context) error {
	calc, err := a.loadCalculator(ctx)
	if err != nil {
		return err
	}
	state := calc.State()
	initial := a.initialDebt(ctx)
	now := time.Now()

	progress := motivation.ProgressPercent(state.CurrentPrincipal, initial)
	fmt.Printf("Balance:          $%s\n", money.Format(state.CurrentPrincipal))
	fmt.Printf("Paid off:         %.1f%% of $%s\n", progress, money.Format(initial))
	fmt.Printf("Minimum payment:  $%s", money.Format(state.MinimumPayment))
	if custom, ok := calc.CustomMinimum(); ok {
		fmt.Printf(" (custom override $%s)", money.Format(custom))
	}
	fmt.Println()
	fmt.Printf("Next due:         %s (%d days)\n",
		billing.NextDueDate(now).Format("Mon 2 Jan 2006"), billing.DaysUntilDue(now))
	fmt.Println()
	fmt.Println(motivation.Message(progress))

	records, err := a.coordinator.LoadRecentPayments(ctx, 10)
	if err != nil {
		return err
	}
	history := paymentHistory(records)

	if state.CurrentPrincipal > 0 {
		projection := motivation.ProjectDebtFreeDate(history, state.CurrentPrincipal, state.MinimumPayment, state.InterestRate, now)
		if projection.MonthsRemaining < motivation.MaxProjectionMonths {
			fmt.Printf("\nDebt-free by %s (%d months at your recent pace",
				projection.ProjectedPayoffDate.Format("January 2006"), projection.MonthsRemaining)
			if projection.MonthsSavedVsMinimum > 0 {
				fmt.Printf(", %d months sooner than minimums alone", projection.MonthsSavedVsMinimum)
			}
			fmt.Println(")")
			fmt.Printf("Projected interest still to pay: $%s\n", money.Format(projection.ProjectedTotalInterest))
		} else {
			fmt.Println("\nAt the current pace this debt does not pay off; raise the monthly payment.")
		}
	}

	savings := motivation.ComputeInterestSavings(history, state.CurrentPrincipal, initial, a.cfg.InitialMinPayment, state.InterestRate)
	if savings.TotalInterestSavedVsMinimum > 0 {
		fmt.Printf("Interest saved vs paying minimums: $%s\n", money.Format(savings.TotalInterestSavedVsMinimum))
	}

	milestones, err := a.coordinator.LoadMilestones(ctx)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		fmt.Printf("Milestone reached: %d%% paid off (%s)\n",
			m.Threshold, m.AchievedAt.Format("2 Jan 2006"))
	}

	return a.printSyncStatus(ctx)
}

func (a *app) runPay(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	amount, err := money.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	if amount <= 0 {
		return errors.New("payment must be greater than zero")
	}

	calc, err := a.loadCalculator(ctx)
	if err != nil {
		return err
	}
	previousPrincipal := calc.State().CurrentPrincipal

	result := calc.ApplyPayment(amount)
	if err := a.coordinator.SaveDebtState(ctx, calc.State()); err != nil {
		return err
	}
	record, err := a.coordinator.SavePayment(ctx, syncsvc.PaymentInput{
		Amount:    amount,
		Principal: result.Principal,
		Interest:  result.Interest,
		Kind:      storage.KindPayment,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Payment recorded: $%s\n", money.Format(amount))
	fmt.Printf("  Interest:  $%s\n", money.Format(result.Interest))
	fmt.Printf("  Principal: $%s\n", money.Format(result.Principal))
	fmt.Printf("  Balance:   $%s\n", money.Format(result.RemainingBalance))
	fmt.Printf("  Next minimum: $%s\n", money.Format(result.NextMinimumPayment))
	if !record.Synced {
		fmt.Println("  (saved locally, will sync when online)")
	}

	threshold, err := a.coordinator.CheckAndRecordMilestone(ctx, previousPrincipal, result.RemainingBalance)
	if err != nil {
		return err
	}
	if threshold > 0 {
		fmt.Println()
		a.celebrateMilestone(ctx, threshold)
	}
	return nil
}

func (a *app) runAdjust(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	calc, err := a.loadCalculator(ctx)
	if err != nil {
		return err
	}
	previousPrincipal := calc.State().CurrentPrincipal

	newPrincipal, err := adjustTarget(args[0], previousPrincipal)
	if err != nil {
		return fmt.Errorf("invalid principal %q: %w", args[0], err)
	}
	if newPrincipal == previousPrincipal {
		fmt.Println("Principal unchanged.")
		return nil
	}

	calc.AdjustPrincipal(newPrincipal)
	if err := a.coordinator.SaveDebtState(ctx, calc.State()); err != nil {
		return err
	}

	note := fmt.Sprintf("principal adjusted from $%s to $%s",
		money.Format(previousPrincipal), money.Format(newPrincipal))
	if _, err := a.coordinator.SavePayment(ctx, syncsvc.PaymentInput{
		Amount: math.Abs(newPrincipal - previousPrincipal),
		Kind:   storage.KindAdjustment,
		Note:   &note,
	}); err != nil {
		return err
	}

	fmt.Printf("Principal adjusted to $%s (minimum payment now $%s)\n",
		money.Format(newPrincipal), money.Format(calc.State().MinimumPayment))

	if newPrincipal < previousPrincipal {
		threshold, err := a.coordinator.CheckAndRecordMilestone(ctx, previousPrincipal, newPrincipal)
		if err != nil {
			return err
		}
		if threshold > 0 {
			a.celebrateMilestone(ctx, threshold)
		}
	}
	return nil
}

// celebrateMilestone shows the milestone to the user and then records that
// it has been celebrated, so the message is never repeated.
func (a *app) celebrateMilestone(ctx context.Context, threshold int) {
	fmt.Printf("%d%% of your debt is gone. Keep going!\n", threshold)
	if err := a.coordinator.MarkMilestoneCelebrated(ctx, threshold); err != nil {
		a.log.Warn("record milestone celebration failed", zap.Int("threshold", threshold), zap.Error(err))
	}
}

// adjustTarget resolves the principal the adjust command should set. An
// explicitly signed argument ("+500", "-1,250.50") is a delta applied to the
// current principal; anything else is the absolute new value.
func adjustTarget(arg string, current float64) (float64, error) {
	trimmed := strings.TrimSpace(arg)
	if strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") {
		delta, err := money.ParseSigned(trimmed)
		if err != nil {
			return 0, err
		}
		target := money.Round2(current + delta)
		if target < 0 {
			return 0, errors.New("adjusted principal would be negative")
		}
		return target, nil
	}
	return money.Parse(trimmed)
}

func (a *app) runMinPay(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	amount, err := money.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}

	calc, err := a.loadCalculator(ctx)
	if err != nil {
		return err
	}

	if amount == 0 {
		if err := a.appConfig.Delete(ctx, storage.ConfigKeyCustomMinPayment); err != nil {
			return err
		}
		state := calc.State()
		state.MinimumPayment = billing.MinimumPayment(state.CurrentPrincipal)
		if err := a.coordinator.SaveDebtState(ctx, state); err != nil {
			return err
		}
		fmt.Printf("Minimum payment restored to the default: $%s\n", money.Format(state.MinimumPayment))
		return nil
	}

	if err := a.appConfig.SetFloat(ctx, storage.ConfigKeyCustomMinPayment, amount); err != nil {
		return err
	}
	calc.UpdateMinimumPayment(amount)
	if err := a.coordinator.SaveDebtState(ctx, calc.State()); err != nil {
		return err
	}
	fmt.Printf("Minimum payment set to $%s\n", money.Format(amount))
	return nil
}

func (a *app) runSimulate(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	monthly, err := money.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	months := 60
	if len(args) == 2 {
		months, err = strconv.Atoi(args[1])
		if err != nil || months <= 0 {
			return fmt.Errorf("invalid month count %q", args[1])
		}
	}

	calc, err := a.loadCalculator(ctx)
	if err != nil {
		return err
	}

	entries := calc.SimulatePayments(monthly, months)
	if len(entries) == 0 {
		fmt.Println("Nothing to simulate: the balance is already zero.")
		return nil
	}

	fmt.Printf("%5s  %12s  %12s  %12s  %12s\n", "month", "payment", "interest", "principal", "balance")
	for _, e := range entries {
		fmt.Printf("%5d  %12s  %12s  %12s  %12s\n",
			e.Month,
			money.Format(e.Payment),
			money.Format(e.Interest),
			money.Format(e.Principal),
			money.Format(e.Balance))
	}

	last := entries[len(entries)-1]
	if last.Balance > 0 {
		fmt.Printf("\nNot paid off within %d months at $%s/month.\n", months, money.Format(monthly))
	} else {
		fmt.Printf("\nPaid off in %d months.\n", last.Month)
	}
	return nil
}

func (a *app) runHistory(ctx context.Context) error {
	records, err := a.coordinator.LoadRecentPayments(ctx, 20)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No payments recorded yet.")
		return nil
	}

	for _, r := range records {
		marker := " "
		if !r.Synced {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %-10s  $%s",
			marker, r.PaidAt.Format("2006-01-02"), r.Kind, money.Format(r.Amount))
		if r.Kind == storage.KindPayment {
			line += fmt.Sprintf("  (interest $%s, principal $%s)",
				money.Format(r.Interest), money.Format(r.Principal))
		}
		if r.Note != nil {
			line += "  " + *r.Note
		}
		fmt.Println(line)
	}
	fmt.Println("\n* not yet synced")
	return nil
}

func (a *app) runSync(ctx context.Context) error {
	a.probeConnectivity(ctx)
	if !a.coordinator.Online() {
		count, err := a.coordinator.QueueCount(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Offline. %d operation(s) waiting to sync.\n", count)
		return nil
	}

	// The online edge already replayed; this catches a prior online state.
	if err := a.coordinator.Replay(ctx); err != nil {
		return err
	}
	return a.printSyncStatus(ctx)
}

func (a *app) runReset(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] != "--yes" {
		return errors.New("reset wipes all local and remote data; run 'paydown reset --yes' to confirm")
	}

	err := a.coordinator.ResetAllData(ctx)
	if err := a.appConfig.Delete(ctx, storage.ConfigKeyCustomMinPayment); err != nil {
		a.log.Warn("clear custom minimum failed", zap.Error(err))
	}
	if err := a.appConfig.Delete(ctx, storage.ConfigKeyInitialDebt); err != nil {
		a.log.Warn("clear pinned initial debt failed", zap.Error(err))
	}

	if errors.Is(err, syncsvc.ErrLocalOnlyReset) {
		fmt.Println("Local data wiped. The remote copy is unreachable and was NOT deleted; run 'paydown reset --yes' again when online.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("All local and remote data wiped.")
	return nil
}

func (a *app) printSyncStatus(ctx context.Context) error {
	count, err := a.coordinator.QueueCount(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	if a.coordinator.Online() {
		fmt.Print("Online.")
	} else {
		fmt.Print("Offline.")
	}
	if count > 0 {
		fmt.Printf(" %d operation(s) waiting to sync.", count)
	}
	fmt.Println()

	for _, collection := range []string{
		storage.CollectionDebtState,
		storage.CollectionPayments,
		storage.CollectionMilestones,
	} {
		state, ok, err := a.syncState.Get(ctx, collection)
		if err != nil {
			return err
		}
		if !ok || state.LastSuccess == nil {
			continue
		}
		fmt.Printf("  %s last synced %s\n", collection, state.LastSuccess.Local().Format("2 Jan 15:04"))
	}
	return nil
}

func paymentHistory(records []storage.PaymentRecord) []motivation.PaymentRecord {
	out := make([]motivation.PaymentRecord, 0, len(records))
	for _, r := range records {
		if r.Kind != storage.KindPayment {
			continue
		}
		out = append(out, motivation.PaymentRecord{Amount: r.Amount, Interest: r.Interest})
	}
	return out
}
