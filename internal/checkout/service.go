package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// ErrOrderRejected wraps a 2xx place-order answer that reported failure.
var ErrOrderRejected = errors.New("order rejected")

const rejectedFallback = "Failed to place order"

type API interface {
	ListAddresses(ctx context.Context, token, userID string) ([]domain.Address, error)
	ListPayments(ctx context.Context, token, userID string) ([]domain.PaymentMethod, error)
	PlaceOrder(ctx context.Context, token string, req domain.PlaceOrderRequest) (*backend.PlaceOrderResponse, error)
}

// Cart is the part of the cart store checkout needs.
type Cart interface {
	Lines() []domain.CartLine
	Settle(ctx context.Context, fn func(lines []domain.CartLine) error) error
}

type Service struct {
	api API
	log *slog.Logger
	now func() time.Time
}

func NewService(api API, log *slog.Logger) *Service {
	return &Service{api: api, log: log.With("component", "checkout"), now: time.Now}
}

// Options are the saved records a shopper picks from.
type Options struct {
	Addresses []domain.Address       `json:"addresses"`
	Payments  []domain.PaymentMethod `json:"payments"`
}

type Result struct {
	Order domain.Order
	Quote pricing.Quote
}

// Quote prices the cart as it is now.
func (s *Service) Quote(c Cart) pricing.Quote {
	return pricing.Compute(c.Lines())
}

func (s *Service) Options(ctx context.Context, id *session.Identity) (Options, error) {
	if id == nil || id.User.ID == "" || id.Token == "" {
		return Options{}, ErrNotLoggedIn
	}
	addrs, err := s.api.ListAddresses(ctx, id.Token, id.User.ID)
	if err != nil {
		return Options{}, fmt.Errorf("list addresses: %w", err)
	}
	payments, err := s.api.ListPayments(ctx, id.Token, id.User.ID)
	if err != nil {
		return Options{}, fmt.Errorf("list payments: %w", err)
	}
	return Options{Addresses: addrs, Payments: payments}, nil
}

// Submit places an order for the cart. The cart is held still from pricing
// to the server's answer and is cleared locally only on success. Checks that
// need no remote data run before any call is made.
func (s *Service) Submit(ctx context.Context, id *session.Identity, c Cart, sel Selection) (*Result, error) {
	var user *domain.User
	if id != nil {
		user = &id.User
	}
	if err := precheck(user, c.Lines(), sel); err != nil {
		return nil, err
	}

	saved, err := s.api.ListPayments(ctx, id.Token, id.User.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	var result *Result
	err = c.Settle(ctx, func(lines []domain.CartLine) error {
		req, quote, err := Build(user, lines, sel, saved)
		if err != nil {
			return err
		}

		resp, err := s.api.PlaceOrder(ctx, id.Token, req)
		if err != nil {
			return fmt.Errorf("place order: %w", err)
		}
		if !resp.Success {
			msg := strings.TrimSpace(resp.Message)
			if msg == "" {
				msg = rejectedFallback
			}
			return fmt.Errorf("%w: %w", ErrOrderRejected,
				&backend.RemoteError{Status: http.StatusUnprocessableEntity, Message: msg})
		}

		result = &Result{Order: s.placed(resp.Order, req), Quote: quote}
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "checkout failed", "user_id", id.User.ID, "error", err)
		return nil, err
	}

	s.log.InfoContext(ctx, "order placed",
		"user_id", id.User.ID, "order_id", result.Order.ID, "total", result.Quote.Payable.StringFixed(2))
	return result, nil
}

// placed prefers the server's order and falls back to the submitted payload.
func (s *Service) placed(order *domain.Order, req domain.PlaceOrderRequest) domain.Order {
	if order != nil {
		return *order
	}
	return domain.Order{
		UserID:         req.UserID,
		Items:          req.Items,
		Total:          req.Total,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		CreatedAt:      s.now().UTC(),
	}
}
