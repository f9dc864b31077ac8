package due

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOutstanding Status = "outstanding"
	StatusSettled     Status = "settled"
)

type Record struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	SettledAt     *time.Time      `json:"settledAt"`
}

// NewOutstanding builds the record left behind by an advance payment. The
// caller persists it together with the order through Insert.
func NewOutstanding(orderID uuid.UUID, orderNumber, email string, amount decimal.Decimal) (*Record, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Record{
		ID:            uuid.New(),
		OrderID:       orderID,
		OrderNumber:   orderNumber,
		CustomerEmail: email,
		Amount:        amount,
		Status:        StatusOutstanding,
	}, nil
}
