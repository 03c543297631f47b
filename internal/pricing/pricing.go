// Package pricing derives cart totals. It has no state and no side effects;
// callers recompute a Quote whenever they need one.
package pricing

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// DiscountThreshold is the subtotal a cart must exceed to get DiscountRate off.
	DiscountThreshold = decimal.NewFromInt(1000)
	DiscountRate      = decimal.RequireFromString("0.10")
)

// Places is the precision every quote amount is rounded to. What the shopper
// sees is exactly what gets submitted.
const Places = 2

type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Payable  decimal.Decimal
}

// Saved reports whether the cart qualified for the discount.
func (q Quote) Saved() bool {
	return q.Discount.IsPositive()
}

func (q Quote) Equal(other Quote) bool {
	return q.Subtotal.Equal(other.Subtotal) &&
		q.Discount.Equal(other.Discount) &&
		q.Payable.Equal(other.Payable)
}

// Compute prices lines at the prices they currently carry. Subtotal and
// discount are rounded half away from zero to Places, so Payable is exact too.
func Compute(lines []domain.CartLine) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		price := decimal.NewFromFloat(l.Product.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(Places)

	discount := decimal.Zero
	if subtotal.GreaterThan(DiscountThreshold) {
		discount = subtotal.Mul(DiscountRate).Round(Places)
	}

	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Payable:  subtotal.Sub(discount),
	}
}
