package remote

import "time"

// DebtState is the wire form of the tracked debt document.
type DebtState struct {
	CurrentPrincipal float64   `json:"currentPrincipal"`
	InterestRate     float64   `json:"interestRate"`
	MinimumPayment   float64   `json:"minimumPayment"`
	StatementDate    time.Time `json:"statementDate"`
	DueDate          time.Time `json:"dueDate"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

// Payment is the wire form of a payment or adjustment record.
type Payment struct {
	ID        string    `json:"id,omitempty"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Principal float64   `json:"principal"`
	Interest  float64   `json:"interest"`
	Kind      string    `json:"type"`
	Note      *string   `json:"note,omitempty"`
}

// Milestone is the wire form of an achieved payoff milestone.
type Milestone struct {
	Threshold              int       `json:"threshold"`
	AchievedAt             time.Time `json:"achievedAt"`
	PrincipalAtAchievement float64   `json:"principalAtAchievement"`
	Celebrated             bool      `json:"celebrated"`
}

type paymentsResponse struct {
	Data []Payment `json:"data"`
}

type createdResponse struct {
	ID string `json:"id"`
}
