package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog *catalog.Store
	opts    Options
}

func NewProductHandler(store *catalog.Store, opts Options) *ProductHandler {
	return &ProductHandler{catalog: store, opts: opts}
}

type FilterDTO struct {
	Category  string  `json:"category,omitempty"`
	Price     string  `json:"price,omitempty"`
	MinRating float64 `json:"rating,omitempty"`
	Sort      string  `json:"sort,omitempty"`
}

type ProductListDTO struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Filter   FilterDTO        `json:"filter"`
}

func filterDTO(f catalog.Filter) FilterDTO {
	dto := FilterDTO{Category: f.Category, MinRating: f.MinRating, Sort: string(f.Sort)}
	if f.Price != nil {
		dto.Price = strconv.FormatFloat(f.Price.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(f.Price.Max, 'f', -1, 64)
	}
	return dto
}

// parseFilter reads category, price, rating and sort. It reports false when
// none of them is present.
func parseFilter(r *http.Request) (catalog.Filter, bool, error) {
	q := r.URL.Query()
	if !q.Has("category") && !q.Has("price") && !q.Has("rating") && !q.Has("sort") {
		return catalog.Filter{}, false, nil
	}

	f := catalog.Filter{Category: q.Get("category")}
	price, err := catalog.ParsePriceRange(q.Get("price"))
	if err != nil {
		return f, true, err
	}
	f.Price = price

	if raw := q.Get("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, true, catalog.ErrInvalidRating
		}
		f.MinRating = rating
	}

	sort, err := catalog.ParseSort(q.Get("sort"))
	if err != nil {
		return f, true, err
	}
	f.Sort = sort
	return f, true, nil
}

// GET /api/v1/products
//
// With filter parameters the session's filter is replaced; without them the
// last filter the session chose is applied again.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	view := getShopper(r.Context()).View
	filter, given, err := parseFilter(r)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	var products []domain.Product
	if given {
		products, err = view.SetFilter(ctx, filter)
	} else {
		products, err = view.Displayed(ctx)
	}
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductListDTO{
		Products: products,
		Total:    len(products),
		Filter:   filterDTO(view.Filter()),
	})
}

// GET /api/v1/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// GET /api/v1/products/newest
func (h *ProductHandler) Newest(w http.ResponseWriter, _ *http.Request) {
	p, ok := h.catalog.Newest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	p, ok, err := h.catalog.Get(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var p domain.Product
	if !decodeJSON(w, r, h.opts.MaxBodySize, &p) {
		return
	}
	id, _ := getIdentity(r.Context())

	created, err := h.catalog.Create(ctx, id.Token, p)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/v1/products/{product_id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var p domain.Product
	if !decodeJSON(w, r, h.opts.MaxBodySize, &p) {
		return
	}
	p.ID = chi.URLParam(r, "product_id")
	id, _ := getIdentity(r.Context())

	updated, err := h.catalog.Update(ctx, id.Token, p)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/products/{product_id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	if err := h.catalog.Delete(ctx, id.Token, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
