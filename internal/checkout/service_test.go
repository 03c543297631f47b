package checkout_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/backend/backendtest"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds string

func (c staticCreds) Token() (string, bool) { return string(c), c != "" }

type fixture struct {
	srv      *backendtest.Server
	svc      *checkout.Service
	cart     *cart.Store
	identity *session.Identity
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := backendtest.New(t)
	srv.SetProducts(
		domain.Product{ID: "p1", Name: "Phone", Price: 600, Category: "mobile"},
		domain.Product{ID: "p2", Name: "Case", Price: 25, Category: "mobile"},
	)
	userID := srv.AddUser("Asha", "asha@example.com", "secret", domain.RoleUser)
	srv.SetAddresses(userID, domain.Address{ID: "a1", Street: "1 Main", City: "Pune"})
	srv.SetPayments(userID,
		domain.PaymentMethod{ID: "pm-card", Type: "Visa", CardNumber: "4111", Expiry: "12/30", CVV: "123"},
		domain.PaymentMethod{ID: "pm-upi", Type: "UPI", UPIID: "asha@bank"},
	)
	token := srv.Token(userID)
	user, _ := srv.User(userID)

	client, err := backend.NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	return fixture{
		srv:      srv,
		svc:      checkout.NewService(client, logger.Discard()),
		cart:     cart.NewStore(client, staticCreds(token), logger.Discard()),
		identity: &session.Identity{User: user, Token: token},
	}
}

func (f fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.cart.Add(ctx, domain.Product{ID: "p1"}, 2))
	require.NoError(t, f.cart.Add(ctx, domain.Product{ID: "p2"}, 1))
}

func TestSubmit_Success(t *testing.T) {
	f := setup(t)
	f.fill(t)
	ctx := context.Background()

	quote := f.svc.Quote(f.cart)
	assert.Equal(t, "1225.00", quote.Subtotal.StringFixed(2))
	assert.True(t, quote.Saved())

	payable := quote.Payable
	res, err := f.svc.Submit(ctx, f.identity, f.cart, checkout.Selection{
		AddressID: "a1", PaymentID: "pm-upi", ExpectedPayable: &payable,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Order.ID)
	assert.InDelta(t, 1102.5, res.Order.Total, 1e-9)
	assert.Equal(t, domain.PaymentKindUPI, res.Order.PaymentMethod)
	assert.Equal(t, domain.PaymentDetails{UPIID: "asha@bank"}, res.Order.PaymentDetails)
	assert.Len(t, res.Order.Items, 2)

	assert.Empty(t, f.cart.Lines(), "local cart cleared")
	orders := f.srv.Orders(f.identity.User.ID)
	require.Len(t, orders, 1)
	assert.InDelta(t, 1102.5, orders[0].Total, 1e-9)
}

func TestSubmit_ValidationMakesNoCalls(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	paymentsRoute := "GET /api/users/" + f.identity.User.ID + "/payments"

	_, err := f.svc.Submit(ctx, nil, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "pm-card"})
	assert.ErrorIs(t, err, checkout.ErrNotLoggedIn)

	_, err = f.svc.Submit(ctx, f.identity, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "pm-card"})
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	f.fill(t)
	_, err = f.svc.Submit(ctx, f.identity, f.cart, checkout.Selection{PaymentID: "pm-card"})
	assert.ErrorIs(t, err, checkout.ErrNoAddress)

	_, err = f.svc.Submit(ctx, f.identity, f.cart, checkout.Selection{AddressID: "a1"})
	assert.ErrorIs(t, err, checkout.ErrNoPayment)

	assert.Zero(t, f.srv.Calls(paymentsRoute))
	assert.Zero(t, f.srv.Calls("POST /api/orders/place-order"))
	assert.Len(t, f.cart.Lines(), 2)
}

func TestSubmit_UnknownPayment(t *testing.T) {
	f := setup(t)
	f.fill(t)

	_, err := f.svc.Submit(context.Background(), f.identity, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "deleted"})
	assert.ErrorIs(t, err, checkout.ErrUnknownPayment)
	assert.Zero(t, f.srv.Calls("POST /api/orders/place-order"))
	assert.Len(t, f.cart.Lines(), 2)
}

func TestSubmit_TotalChanged(t *testing.T) {
	f := setup(t)
	f.fill(t)

	stale := f.svc.Quote(f.cart).Subtotal
	_, err := f.svc.Submit(context.Background(), f.identity, f.cart, checkout.Selection{
		AddressID: "a1", PaymentID: "pm-card", ExpectedPayable: &stale,
	})
	assert.ErrorIs(t, err, checkout.ErrTotalChanged)
	assert.Zero(t, f.srv.Calls("POST /api/orders/place-order"))
	assert.Len(t, f.cart.Lines(), 2)
}

func TestSubmit_Rejected(t *testing.T) {
	f := setup(t)
	f.fill(t)
	f.srv.OrderRejection = "Out of stock"

	_, err := f.svc.Submit(context.Background(), f.identity, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "pm-card"})
	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrOrderRejected)

	var re *backend.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Out of stock", re.Message)
	assert.Len(t, f.cart.Lines(), 2, "cart untouched on failure")
	assert.Empty(t, f.srv.Orders(f.identity.User.ID))
}

func TestSubmit_ServerError(t *testing.T) {
	f := setup(t)
	f.fill(t)
	f.srv.Fail("POST /api/orders/place-order", http.StatusBadRequest, "Payment declined")

	_, err := f.svc.Submit(context.Background(), f.identity, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "pm-card"})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusBadRequest))
	assert.Len(t, f.cart.Lines(), 2)
}

func TestOptions(t *testing.T) {
	f := setup(t)

	opts, err := f.svc.Options(context.Background(), f.identity)
	require.NoError(t, err)
	assert.Len(t, opts.Addresses, 1)
	assert.Len(t, opts.Payments, 2)

	_, err = f.svc.Options(context.Background(), nil)
	assert.ErrorIs(t, err, checkout.ErrNotLoggedIn)

	_, err = f.svc.Options(context.Background(), &session.Identity{})
	assert.ErrorIs(t, err, checkout.ErrNotLoggedIn)
	assert.Zero(t, f.srv.Calls("GET /api/users//addresses"))
	assert.Zero(t, f.srv.Calls("GET /api/users//payments"))
}

type rejectingAPI struct {
	checkout.API
	payments []domain.PaymentMethod
}

func (r rejectingAPI) ListPayments(context.Context, string, string) ([]domain.PaymentMethod, error) {
	return r.payments, nil
}

func (r rejectingAPI) PlaceOrder(context.Context, string, domain.PlaceOrderRequest) (*backend.PlaceOrderResponse, error) {
	return &backend.PlaceOrderResponse{Success: false}, nil
}

func TestSubmit_RejectedWithoutMessage(t *testing.T) {
	f := setup(t)
	f.fill(t)
	svc := checkout.NewService(rejectingAPI{payments: []domain.PaymentMethod{{ID: "pm", Type: "card"}}}, logger.Discard())

	_, err := svc.Submit(context.Background(), f.identity, f.cart, checkout.Selection{AddressID: "a1", PaymentID: "pm"})
	var re *backend.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Failed to place order", re.Message)
}
