package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type RoleRequestDTO struct {
	Role string `json:"role"`
}

// GET /api/v1/admin/dashboard
func (h *AccountHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	raw, err := h.api.AdminDashboard(ctx, id.Token)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, raw)
}

// GET /api/v1/superadmin/dashboard
func (h *AccountHandler) SuperAdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	raw, err := h.api.SuperAdminDashboard(ctx, id.Token)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, raw)
}

// PUT /api/v1/users/{user_id}/role
func (h *AccountHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var req RoleRequestDTO
	if !decodeJSON(w, r, h.opts.MaxBodySize, &req) {
		return
	}
	role := domain.ParseRole(req.Role)
	if role == domain.RoleGuest {
		respondError(w, http.StatusBadRequest, "invalid_argument", "role must be user, admin or superadmin")
		return
	}

	id, _ := getIdentity(r.Context())
	userID := chi.URLParam(r, "user_id")
	if err := h.api.UpdateRole(ctx, id.Token, userID, role); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	h.opts.Log.InfoContext(ctx, "role changed", "by", id.User.ID, "user_id", userID, "role", role.String())
	respondJSON(w, http.StatusOK, MessageDTO{Message: "Role updated"})
}

// DELETE /api/v1/users/{user_id}
func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	userID := chi.URLParam(r, "user_id")
	if err := h.api.DeleteUser(ctx, id.Token, userID); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	h.opts.Log.InfoContext(ctx, "user deleted", "by", id.User.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/users/{user_id}/orders
func (h *AccountHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	orders, err := h.api.OrderHistory(ctx, id.Token, chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderHistoryDTO{Orders: orders, Total: len(orders)})
}
