package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a cart price may carry.
const PriceScale = 2

var (
	// FreeDeliveryAbove is the subtotal strictly above which delivery is free.
	FreeDeliveryAbove = decimal.NewFromInt(5000)
	DeliveryFee       = decimal.NewFromInt(150)
	AdvanceRate       = decimal.RequireFromString("0.3")
)

// Discounter yields the discount for a subtotal. A nil Discounter means no
// coupon was applied.
type Discounter interface {
	Discount(subtotal decimal.Decimal) decimal.Decimal
}

// ValidateItems checks every cart line before pricing.
func ValidateItems(items []CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("item %d: %w", i, ErrInvalidPrice)
		}
		if !it.Price.Equal(it.Price.Truncate(PriceScale)) {
			return fmt.Errorf("item %d: %w", i, ErrPricePrecision)
		}
	}
	return nil
}

// Subtotal sums price times quantity over the cart.
func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// DeliveryFor returns zero for subtotals above FreeDeliveryAbove.
func DeliveryFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeDeliveryAbove) {
		return decimal.Zero
	}
	return DeliveryFee
}

// AdvanceFor is the amount collected up front on an advance order, rounded
// up to a whole currency unit.
func AdvanceFor(total decimal.Decimal) decimal.Decimal {
	return total.Mul(AdvanceRate).Ceil()
}

// Split divides total into the paid-now and due parts.
func Split(total decimal.Decimal, t PaymentType) (paid, due decimal.Decimal) {
	if t == PaymentAdvance {
		paid = AdvanceFor(total)
		if paid.GreaterThan(total) {
			paid = total
		}
		return paid, total.Sub(paid)
	}
	return total, decimal.Zero
}

// Quote prices a cart. The discount never exceeds the subtotal.
func Quote(items []CartItem, d Discounter, t PaymentType) (Totals, error) {
	if err := ValidateItems(items); err != nil {
		return Totals{}, err
	}
	if !t.Valid() {
		return Totals{}, ErrInvalidPaymentType
	}

	subtotal := Subtotal(items)
	discount := decimal.Zero
	if d != nil {
		discount = d.Discount(subtotal)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	delivery := DeliveryFor(subtotal)
	total := subtotal.Sub(discount).Add(delivery)
	paid, due := Split(total, t)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Delivery:       delivery,
		Total:          total,
		PaidAmount:     paid,
		DueAmount:      due,
	}, nil
}
