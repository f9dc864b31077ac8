package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision reports whether s is a terminal outcome an admin may choose.
func (s Status) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) Valid() bool {
	return s == StatusPending || s.Decision()
}

type Request struct {
	ID         uuid.UUID       `json:"id"`
	WorkerID   uuid.UUID       `json:"workerId"`
	WorkerName string          `json:"workerName"`
	Material   string          `json:"material"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	Note       string          `json:"note,omitempty"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	DecidedAt  *time.Time      `json:"decidedAt,omitempty"`
}

type CreateInput struct {
	Material string          `json:"material"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Note     string          `json:"note"`
}
