package checkout

import (
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	shopper = &domain.User{ID: "u1", Fullname: "Asha", Role: domain.RoleUser}
	card    = domain.PaymentMethod{ID: "pm-card", Type: "Visa", CardNumber: "4111", Expiry: "12/30", CVV: "123"}
	upi     = domain.PaymentMethod{ID: "pm-upi", Type: "UPI", UPIID: "asha@bank"}
	saved   = []domain.PaymentMethod{card, upi}
)

func line(id string, price float64, qty int) domain.CartLine {
	return domain.CartLine{Product: domain.Product{ID: id, Name: "item " + id, Price: price}, Quantity: qty}
}

func TestBuild_ValidationOrder(t *testing.T) {
	lines := []domain.CartLine{line("p1", 10, 1)}
	full := Selection{AddressID: "a1", PaymentID: "pm-card"}

	tests := []struct {
		name  string
		user  *domain.User
		lines []domain.CartLine
		sel   Selection
		want  error
	}{
		{"no user beats everything", nil, nil, Selection{}, ErrNotLoggedIn},
		{"user without id", &domain.User{}, lines, full, ErrNotLoggedIn},
		{"empty cart before address", shopper, nil, Selection{}, ErrEmptyCart},
		{"address before payment", shopper, lines, Selection{}, ErrNoAddress},
		{"payment required", shopper, lines, Selection{AddressID: "a1"}, ErrNoPayment},
		{"payment must be saved", shopper, lines, Selection{AddressID: "a1", PaymentID: "gone"}, ErrUnknownPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Build(tt.user, tt.lines, tt.sel, saved)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalize(t *testing.T) {
	kind, details := Normalize(upi)
	assert.Equal(t, domain.PaymentKindUPI, kind)
	assert.Equal(t, domain.PaymentDetails{UPIID: "asha@bank"}, details)

	kind, details = Normalize(domain.PaymentMethod{Type: "upi", UPIID: "x@y", CardNumber: "ignored"})
	assert.Equal(t, domain.PaymentKindUPI, kind)
	assert.Empty(t, details.CardNumber)

	kind, details = Normalize(card)
	assert.Equal(t, domain.PaymentKindCard, kind)
	assert.Equal(t, domain.PaymentDetails{CardNumber: "4111", Expiry: "12/30", CVV: "123"}, details)

	// any label other than UPI is a card
	kind, _ = Normalize(domain.PaymentMethod{Type: "NetBanking"})
	assert.Equal(t, domain.PaymentKindCard, kind)
}

func TestBuild_PayloadWithDiscount(t *testing.T) {
	lines := []domain.CartLine{line("p1", 600, 2), line("p2", 50, 1)}
	req, quote, err := Build(shopper, lines, Selection{AddressID: "a1", PaymentID: "pm-upi"}, saved)
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(1250)))
	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(125)))
	assert.InDelta(t, 1125.0, req.Total, 1e-9)

	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, domain.PaymentKindUPI, req.PaymentMethod)
	assert.Equal(t, "asha@bank", req.PaymentDetails.UPIID)
	assert.Equal(t, []domain.OrderItem{
		{ProductID: "p1", Name: "item p1", Price: 600, Quantity: 2},
		{ProductID: "p2", Name: "item p2", Price: 50, Quantity: 1},
	}, req.Items)
}

func TestBuild_ExpectedPayable(t *testing.T) {
	lines := []domain.CartLine{line("p1", 100, 5)}

	shown := decimal.NewFromInt(500)
	_, _, err := Build(shopper, lines, Selection{AddressID: "a1", PaymentID: "pm-card", ExpectedPayable: &shown}, saved)
	require.NoError(t, err)

	stale := decimal.NewFromInt(450)
	_, quote, err := Build(shopper, lines, Selection{AddressID: "a1", PaymentID: "pm-card", ExpectedPayable: &stale}, saved)
	assert.ErrorIs(t, err, ErrTotalChanged)
	assert.True(t, quote.Payable.Equal(shown), "the fresh quote is still returned")
}

func TestBuild_DisplayedPayableRoundTrips(t *testing.T) {
	lines := []domain.CartLine{line("p1", 1000.05, 1)}

	displayed := pricing.Compute(lines).Payable.StringFixed(2)
	shown := decimal.RequireFromString(displayed)

	req, quote, err := Build(shopper, lines, Selection{AddressID: "a1", PaymentID: "pm-card", ExpectedPayable: &shown}, saved)
	require.NoError(t, err)
	assert.Equal(t, "900.04", displayed)
	assert.Equal(t, displayed, quote.Payable.StringFixed(2))
	assert.Equal(t, 900.04, req.Total)
}
