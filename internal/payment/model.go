package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderBkash  Provider = "bkash"
	ProviderOnline Provider = "online"
)

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome is what the provider reports when it sends the customer back.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeCancel  Outcome = "cancel"
)

func ParseOutcome(s string) Outcome {
	switch Outcome(s) {
	case OutcomeSuccess, OutcomeCancel:
		return Outcome(s)
	}
	return OutcomeFailure
}

type Payment struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	Provider          Provider        `json:"provider"`
	ProviderPaymentID string          `json:"providerPaymentId"`
	TrxID             string          `json:"trxId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Status            Status          `json:"status"`
	RedirectURL       string          `json:"redirectUrl"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// StartRequest carries what a provider needs to open a payment page.
type StartRequest struct {
	// Reference is our payment id, echoed back by providers that let us
	// choose the transaction id.
	Reference     string
	OrderID       uuid.UUID
	OrderNumber   string
	Provider      Provider
	Amount        decimal.Decimal
	CustomerName  string
	CustomerEmail string
	Phone         string
}

type CreateResponse struct {
	ProviderPaymentID string
	RedirectURL       string
}

type ExecuteResponse struct {
	PaymentID         string
	TrxID             string
	TransactionStatus string
	Amount            string
}
