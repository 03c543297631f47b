package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	opts     Options
}

func NewCheckoutHandler(svc *checkout.Service, opts Options) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, opts: opts}
}

type CheckoutRequestDTO struct {
	AddressID       string `json:"addressId"`
	PaymentID       string `json:"paymentId"`
	ExpectedPayable string `json:"expectedPayable,omitempty"`
}

type CheckoutResponseDTO struct {
	Order   domain.Order `json:"order"`
	Quote   QuoteDTO     `json:"quote"`
	Message string       `json:"message"`
}

// GET /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	sh := getShopper(r.Context())
	respondJSON(w, http.StatusOK, quoteDTO(h.checkout.Quote(sh.Cart)))
}

// GET /api/v1/checkout/options
func (h *CheckoutHandler) Options(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, ok := getIdentity(r.Context())
	if !ok {
		handleError(w, r, h.opts.Log, checkout.ErrNotLoggedIn)
		return
	}
	opts, err := h.checkout.Options(ctx, &id)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, opts)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, h.opts.MaxBodySize, &req) {
		return
	}

	sel := checkout.Selection{AddressID: req.AddressID, PaymentID: req.PaymentID}
	if raw := strings.TrimSpace(req.ExpectedPayable); raw != "" {
		expected, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_argument", "expectedPayable must be a number")
			return
		}
		sel.ExpectedPayable = &expected
	}

	identity, ok := getIdentity(r.Context())
	if !ok {
		handleError(w, r, h.opts.Log, checkout.ErrNotLoggedIn)
		return
	}

	res, err := h.checkout.Submit(ctx, &identity, getShopper(r.Context()).Cart, sel)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:   res.Order,
		Quote:   quoteDTO(res.Quote),
		Message: "Order placed successfully!",
	})
}
