package order

import (
	"time"

	"tailorshop-be/internal/checkout"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ProductionStep tracks the garment on the shop floor. It moves
// independently of Status.
type ProductionStep string

const (
	StepQueue     ProductionStep = "Queue"
	StepCutting   ProductionStep = "Cutting"
	StepStitching ProductionStep = "Stitching"
	StepFinishing ProductionStep = "Finishing"
	StepReady     ProductionStep = "Ready"
)

func (p ProductionStep) Valid() bool {
	switch p {
	case StepQueue, StepCutting, StepStitching, StepFinishing, StepReady:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentFullyPaid     PaymentStatus = "Fully Paid"
	PaymentPartiallyPaid PaymentStatus = "Partially Paid"
)

type Order struct {
	ID             uuid.UUID              `json:"id"`
	OrderNumber    string                 `json:"orderNumber"`
	Status         Status                 `json:"status"`
	ProductionStep ProductionStep         `json:"productionStep"`
	PaymentStatus  PaymentStatus          `json:"paymentStatus"`
	PaymentType    checkout.PaymentType   `json:"paymentType"`
	PaymentMethod  checkout.PaymentMethod `json:"paymentMethod"`
	PaymentRef     string                 `json:"paymentRef,omitempty"`
	PaymentURL     string                 `json:"paymentUrl,omitempty"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Delivery       decimal.Decimal `json:"delivery"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	DueAmount      decimal.Decimal `json:"dueAmount"`
	CouponCode     string          `json:"couponCode,omitempty"`

	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`

	Note         string     `json:"note,omitempty"`
	OrderType    string     `json:"orderType,omitempty"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`

	IdempotencyKey string `json:"-"`

	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Item is a cart line frozen into an order.
type Item struct {
	ID int64 `json:"id"`
	checkout.CartItem
}

func (o *Order) Totals() checkout.Totals {
	return checkout.Totals{
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		Delivery:       o.Delivery,
		Total:          o.Total,
		PaidAmount:     o.PaidAmount,
		DueAmount:      o.DueAmount,
	}
}

type CheckoutInput struct {
	Items         []checkout.CartItem    `json:"items"`
	CouponCode    string                 `json:"couponCode"`
	PaymentType   checkout.PaymentType   `json:"paymentType"`
	PaymentMethod checkout.PaymentMethod `json:"paymentMethod"`
	CustomerName  string                 `json:"customerName"`
	CustomerEmail string                 `json:"customerEmail"`
	Phone         string                 `json:"phone"`
	Address       string                 `json:"address"`
	City          string                 `json:"city"`
	Note          string                 `json:"note"`
	OrderType     string                 `json:"orderType"`
	DeliveryDate  *time.Time             `json:"deliveryDate"`
}

type CheckoutResult struct {
	Order       *Order `json:"order"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	// Replayed is true when the idempotency key matched an earlier order.
	Replayed bool `json:"replayed"`
}

type Filter struct {
	Status        *Status
	Step          *ProductionStep
	CustomerEmail string
	Limit         int32
	Page          int32
}

type Page struct {
	Items []Order `json:"items"`
	Total int64   `json:"total"`
	Limit int32   `json:"limit"`
	Page  int32   `json:"page"`
}
