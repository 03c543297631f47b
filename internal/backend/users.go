package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ProfileUpdate struct {
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func userPath(userID string) string {
	return "/api/users/" + segment(userID)
}

func (c *Client) GetUser(ctx context.Context, token, userID string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, userPath(userID), token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, userID string, upd ProfileUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodPut, userPath(userID), token, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.do(ctx, http.MethodDelete, userPath(userID), token, nil, nil)
}

func (c *Client) UpdateRole(ctx context.Context, token, userID string, role domain.Role) error {
	body := struct {
		Role domain.Role `json:"role"`
	}{Role: role}
	return c.do(ctx, http.MethodPut, userPath(userID)+"/role", token, body, nil)
}

func (c *Client) ListAddresses(ctx context.Context, token, userID string) ([]domain.Address, error) {
	var addrs []domain.Address
	if err := c.do(ctx, http.MethodGet, userPath(userID)+"/addresses", token, nil, &addrs); err != nil {
		return nil, err
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	return addrs, nil
}

func (c *Client) AddAddress(ctx context.Context, token, userID string, addr domain.Address) error {
	return c.do(ctx, http.MethodPost, userPath(userID)+"/addresses", token, addr, nil)
}

func (c *Client) DeleteAddress(ctx context.Context, token, userID, addressID string) error {
	return c.do(ctx, http.MethodDelete, userPath(userID)+"/addresses/"+segment(addressID), token, nil, nil)
}

func (c *Client) ListPayments(ctx context.Context, token, userID string) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := c.do(ctx, http.MethodGet, userPath(userID)+"/payments", token, nil, &methods); err != nil {
		return nil, err
	}
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	return methods, nil
}

func (c *Client) AddPayment(ctx context.Context, token, userID string, pm domain.PaymentMethod) error {
	return c.do(ctx, http.MethodPost, userPath(userID)+"/payments", token, pm, nil)
}

func (c *Client) DeletePayment(ctx context.Context, token, userID, paymentID string) error {
	return c.do(ctx, http.MethodDelete, userPath(userID)+"/payments/"+segment(paymentID), token, nil, nil)
}

// AdminDashboard and SuperAdminDashboard return the backend summary as is.
func (c *Client) AdminDashboard(ctx context.Context, token string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/admin/dashboard", token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) SuperAdminDashboard(ctx context.Context, token string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/superadmin/dashboard", token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
