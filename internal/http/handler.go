package http

import (
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
)

// Options are shared by every handler.
type Options struct {
	Timeout     time.Duration
	MaxBodySize int64
	Log         *slog.Logger
}

type QuoteDTO struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Payable  string `json:"payable"`
	Saved    bool   `json:"saved"`
}

func quoteDTO(q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		Subtotal: q.Subtotal.StringFixed(2),
		Discount: q.Discount.StringFixed(2),
		Payable:  q.Payable.StringFixed(2),
		Saved:    q.Saved(),
	}
}

type CartDTO struct {
	Products []domain.CartLine `json:"products"`
	Count    int               `json:"count"`
	Quote    QuoteDTO          `json:"quote"`
}

func cartDTO(lines []domain.CartLine) CartDTO {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return CartDTO{Products: lines, Count: count, Quote: quoteDTO(pricing.Compute(lines))}
}

type MessageDTO struct {
	Message string `json:"message"`
}
