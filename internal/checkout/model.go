package checkout

import "github.com/shopspring/decimal"

type PaymentType string

const (
	PaymentFull    PaymentType = "full"
	PaymentAdvance PaymentType = "advance"
)

func (t PaymentType) Valid() bool {
	return t == PaymentFull || t == PaymentAdvance
}

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodBkash  PaymentMethod = "bkash"
	MethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCOD, MethodBkash, MethodOnline:
		return true
	}
	return false
}

// Redirects reports whether the method hands the customer to an external
// payment page.
func (m PaymentMethod) Redirects() bool {
	return m == MethodBkash || m == MethodOnline
}

// CustomOrder is the bespoke payload a customer attaches to a cart line.
type CustomOrder struct {
	Measurements   map[string]float64 `json:"measurements,omitempty"`
	DesignNote     string             `json:"designNote,omitempty"`
	ReferenceImage string             `json:"referenceImage,omitempty"`
}

type CartItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Fabric      string          `json:"fabric,omitempty"`
	CustomOrder *CustomOrder    `json:"customOrder,omitempty"`
}

// LineTotal is price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Delivery       decimal.Decimal `json:"delivery"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	DueAmount      decimal.Decimal `json:"dueAmount"`
}

// FullyPaid reports whether nothing is left to collect.
func (t Totals) FullyPaid() bool {
	return t.DueAmount.IsZero()
}
