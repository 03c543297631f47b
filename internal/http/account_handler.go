package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

// AccountAPI is the remote surface behind the profile, order history and
// admin pages.
type AccountAPI interface {
	GetUser(ctx context.Context, token, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, token, userID string, upd backend.ProfileUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, token, userID string) error
	UpdateRole(ctx context.Context, token, userID string, role domain.Role) error
	ListAddresses(ctx context.Context, token, userID string) ([]domain.Address, error)
	AddAddress(ctx context.Context, token, userID string, addr domain.Address) error
	DeleteAddress(ctx context.Context, token, userID, addressID string) error
	ListPayments(ctx context.Context, token, userID string) ([]domain.PaymentMethod, error)
	AddPayment(ctx context.Context, token, userID string, pm domain.PaymentMethod) error
	DeletePayment(ctx context.Context, token, userID, paymentID string) error
	OrderHistory(ctx context.Context, token, userID string) ([]domain.Order, error)
	AdminDashboard(ctx context.Context, token string) (json.RawMessage, error)
	SuperAdminDashboard(ctx context.Context, token string) (json.RawMessage, error)
}

type AccountHandler struct {
	api  AccountAPI
	opts Options
}

func NewAccountHandler(api AccountAPI, opts Options) *AccountHandler {
	return &AccountHandler{api: api, opts: opts}
}

type OrderHistoryDTO struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
}

// GET /api/v1/orders
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	orders, err := h.api.OrderHistory(ctx, id.Token, id.User.ID)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderHistoryDTO{Orders: orders, Total: len(orders)})
}

// GET /api/v1/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	user, err := h.api.GetUser(ctx, id.Token, id.User.ID)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PUT /api/v1/profile
//
// The stored session user is replaced with the updated record so later
// pages show the new name.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var upd backend.ProfileUpdate
	if !decodeJSON(w, r, h.opts.MaxBodySize, &upd) {
		return
	}
	upd.Fullname = strings.TrimSpace(upd.Fullname)
	upd.Email = strings.TrimSpace(upd.Email)
	upd.Phone = strings.TrimSpace(upd.Phone)

	id, _ := getIdentity(r.Context())
	user, err := h.api.UpdateUser(ctx, id.Token, id.User.ID, upd)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	// the backend may omit the role on update
	if user.Role == domain.RoleGuest {
		user.Role = id.User.Role
	}
	if err := getShopper(r.Context()).Session.Save(ctx, *user, id.Token); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// GET /api/v1/profile/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	addrs, err := h.api.ListAddresses(ctx, id.Token, id.User.ID)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, addrs)
}

// POST /api/v1/profile/addresses
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var addr domain.Address
	if !decodeJSON(w, r, h.opts.MaxBodySize, &addr) {
		return
	}
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "street and city are required")
		return
	}

	id, _ := getIdentity(r.Context())
	if err := h.api.AddAddress(ctx, id.Token, id.User.ID, addr); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, MessageDTO{Message: "Address added"})
}

// DELETE /api/v1/profile/addresses/{address_id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	if err := h.api.DeleteAddress(ctx, id.Token, id.User.ID, chi.URLParam(r, "address_id")); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/profile/payments
func (h *AccountHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	methods, err := h.api.ListPayments(ctx, id.Token, id.User.ID)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, methods)
}

// POST /api/v1/profile/payments
func (h *AccountHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var pm domain.PaymentMethod
	if !decodeJSON(w, r, h.opts.MaxBodySize, &pm) {
		return
	}
	switch pm.Kind() {
	case domain.PaymentKindUPI:
		if strings.TrimSpace(pm.UPIID) == "" {
			respondError(w, http.StatusBadRequest, "invalid_argument", "upiId is required")
			return
		}
	case domain.PaymentKindCard:
		if strings.TrimSpace(pm.CardNumber) == "" {
			respondError(w, http.StatusBadRequest, "invalid_argument", "cardNumber is required")
			return
		}
	}

	id, _ := getIdentity(r.Context())
	if err := h.api.AddPayment(ctx, id.Token, id.User.ID, pm); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, MessageDTO{Message: "Payment method added"})
}

// DELETE /api/v1/profile/payments/{payment_id}
func (h *AccountHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	if err := h.api.DeletePayment(ctx, id.Token, id.User.ID, chi.URLParam(r, "payment_id")); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
