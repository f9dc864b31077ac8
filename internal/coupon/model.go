package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	IsActive        bool            `json:"isActive"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
	UsageLimit      *int            `json:"usageLimit"`
	UsageCount      int             `json:"usageCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Applied is a coupon that passed evaluation.
type Applied struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
}

type CouponInput struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	IsActive        bool            `json:"isActive"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
	UsageLimit      *int            `json:"usageLimit"`
}
