package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type PlaceOrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *domain.Order `json:"order,omitempty"`
}

// PlaceOrder submits an order. A 2xx answer may still carry success=false;
// callers decide what that means.
func (c *Client) PlaceOrder(ctx context.Context, token string, req domain.PlaceOrderRequest) (*PlaceOrderResponse, error) {
	var resp PlaceOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders/place-order", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) OrderHistory(ctx context.Context, token, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/history/"+segment(userID), token, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
