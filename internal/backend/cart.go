package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

type cartEnvelope struct {
	Cart *domain.Cart `json:"cart"`
}

func (e cartEnvelope) cart() *domain.Cart {
	if e.Cart == nil || e.Cart.Lines == nil {
		return &domain.Cart{Lines: []domain.CartLine{}}
	}
	return e.Cart
}

func (c *Client) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/cart", token, nil, &env); err != nil {
		return nil, err
	}
	return env.cart(), nil
}

func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) (*domain.Cart, error) {
	var env cartEnvelope
	req := cartItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/api/cart/add", token, req, &env); err != nil {
		return nil, err
	}
	return env.cart(), nil
}

func (c *Client) UpdateCart(ctx context.Context, token, productID string, quantity int) (*domain.Cart, error) {
	var env cartEnvelope
	req := cartItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/api/cart/update", token, req, &env); err != nil {
		return nil, err
	}
	return env.cart(), nil
}

func (c *Client) RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/cart/remove", token, cartItemRequest{ProductID: productID}, &env); err != nil {
		return nil, err
	}
	return env.cart(), nil
}
