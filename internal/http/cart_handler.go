package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	catalog *catalog.Store
	opts    Options
}

func NewCartHandler(store *catalog.Store, opts Options) *CartHandler {
	return &CartHandler{catalog: store, opts: opts}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
//
// ?refresh=true reloads the cart from the remote API first.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	sh := getShopper(r.Context())
	if r.URL.Query().Get("refresh") == "true" {
		if err := sh.Cart.Load(ctx); err != nil {
			handleError(w, r, h.opts.Log, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, cartDTO(sh.Cart.Lines()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	if _, ok := getIdentity(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Please login to add to cart")
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, h.opts.MaxBodySize, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, found, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	sh := getShopper(r.Context())
	if err := sh.Cart.Add(ctx, product, req.Quantity); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartDTO(sh.Cart.Lines()))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, h.opts.MaxBodySize, &req) {
		return
	}

	sh := getShopper(r.Context())
	if err := sh.Cart.SetQuantity(ctx, chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, cartDTO(sh.Cart.Lines()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	sh := getShopper(r.Context())
	if err := sh.Cart.Remove(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, cartDTO(sh.Cart.Lines()))
}

// DELETE /api/v1/cart clears the cart in this session only.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sh := getShopper(r.Context())
	sh.Cart.Clear()
	respondJSON(w, http.StatusOK, cartDTO(sh.Cart.Lines()))
}
