package syncsvc

import (
	"github.com/kmsantiago/paydown/internal/debt"
	"github.com/kmsantiago/paydown/internal/remote"
	"github.com/kmsantiago/paydown/internal/storage"
)

func toWireDebt(state debt.State) remote.DebtState {
	return remote.DebtState{
		CurrentPrincipal: state.CurrentPrincipal,
		InterestRate:     state.InterestRate,
		MinimumPayment:   state.MinimumPayment,
		StatementDate:    state.StatementDate,
		DueDate:          state.DueDate,
	}
}

func fromWireDebt(state remote.DebtState) debt.State {
	return debt.State{
		CurrentPrincipal: state.CurrentPrincipal,
		InterestRate:     state.InterestRate,
		MinimumPayment:   state.MinimumPayment,
		StatementDate:    state.StatementDate,
		DueDate:          state.DueDate,
	}
}

func toWirePayment(record storage.PaymentRecord) remote.Payment {
	return remote.Payment{
		ID:        record.ID,
		Amount:    record.Amount,
		Date:      record.PaidAt,
		Principal: record.Principal,
		Interest:  record.Interest,
		Kind:      string(record.Kind),
		Note:      record.Note,
	}
}

func fromWirePayment(payment remote.Payment) storage.PaymentRecord {
	return storage.PaymentRecord{
		ID:        payment.ID,
		Amount:    payment.Amount,
		PaidAt:    payment.Date,
		Principal: payment.Principal,
		Interest:  payment.Interest,
		Kind:      storage.PaymentKind(payment.Kind),
		Note:      payment.Note,
		Synced:    true,
	}
}

func toWireMilestone(record storage.MilestoneRecord) remote.Milestone {
	return remote.Milestone{
		Threshold:              record.Threshold,
		AchievedAt:             record.AchievedAt,
		PrincipalAtAchievement: record.PrincipalAtAchievement,
		Celebrated:             record.Celebrated,
	}
}
