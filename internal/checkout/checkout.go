// Package checkout turns a cart into an order submission. Build is pure;
// Service adds the remote calls around it.
package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// Validation failures, in the order they are checked.
var (
	ErrNotLoggedIn    = errors.New("user not logged in")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNoAddress      = errors.New("please select a delivery address")
	ErrNoPayment      = errors.New("please select a payment method")
	ErrUnknownPayment = errors.New("invalid payment method")
)

// ErrTotalChanged means the payable the shopper confirmed no longer matches
// the cart.
var ErrTotalChanged = errors.New("order total changed, please review your cart")

// Selection is what the shopper picked on the checkout page. ExpectedPayable,
// when set, is the payable they were shown.
type Selection struct {
	AddressID       string
	PaymentID       string
	ExpectedPayable *decimal.Decimal
}

// Normalize maps a saved method onto the order schema: "upi" for UPI
// methods, "card" for everything else.
func Normalize(pm domain.PaymentMethod) (domain.PaymentKind, domain.PaymentDetails) {
	if pm.Kind() == domain.PaymentKindUPI {
		return domain.PaymentKindUPI, domain.PaymentDetails{UPIID: pm.UPIID}
	}
	return domain.PaymentKindCard, domain.PaymentDetails{
		CardNumber: pm.CardNumber,
		Expiry:     pm.Expiry,
		CVV:        pm.CVV,
	}
}

func precheck(user *domain.User, lines []domain.CartLine, sel Selection) error {
	switch {
	case user == nil || user.ID == "":
		return ErrNotLoggedIn
	case len(lines) == 0:
		return ErrEmptyCart
	case sel.AddressID == "":
		return ErrNoAddress
	case sel.PaymentID == "":
		return ErrNoPayment
	}
	return nil
}

// Build validates the checkout and assembles the order payload. The total is
// always the payable of a fresh quote over lines.
func Build(user *domain.User, lines []domain.CartLine, sel Selection, saved []domain.PaymentMethod) (domain.PlaceOrderRequest, pricing.Quote, error) {
	if err := precheck(user, lines, sel); err != nil {
		return domain.PlaceOrderRequest{}, pricing.Quote{}, err
	}

	var method *domain.PaymentMethod
	for i := range saved {
		if saved[i].ID == sel.PaymentID {
			method = &saved[i]
			break
		}
	}
	if method == nil {
		return domain.PlaceOrderRequest{}, pricing.Quote{}, ErrUnknownPayment
	}

	quote := pricing.Compute(lines)
	if sel.ExpectedPayable != nil && !sel.ExpectedPayable.Equal(quote.Payable) {
		return domain.PlaceOrderRequest{}, quote, fmt.Errorf("%w: expected %s, now %s",
			ErrTotalChanged, sel.ExpectedPayable.StringFixed(2), quote.Payable.StringFixed(2))
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		})
	}

	kind, details := Normalize(*method)
	return domain.PlaceOrderRequest{
		UserID:         user.ID,
		Items:          items,
		Total:          quote.Payable.InexactFloat64(),
		PaymentMethod:  kind,
		PaymentDetails: details,
	}, quote, nil
}
